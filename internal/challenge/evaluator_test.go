package challenge_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/CatchLog_Go/internal/catalog"
	"github.com/osse101/CatchLog_Go/internal/challenge"
	"github.com/osse101/CatchLog_Go/internal/database/memory"
	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/repository"
)

const catalogPath = "../../configs/challenges.json"

func ptr[T any](v T) *T { return &v }

var now = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	catalog   *catalog.Catalog
	evaluator *challenge.Evaluator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	cat := catalog.New(store, 64, time.Minute)
	_, err := cat.Sync(context.Background(), catalog.NewLoader(), catalogPath)
	require.NoError(t, err)
	return &fixture{store: store, catalog: cat, evaluator: challenge.NewEvaluator(cat)}
}

// newBareFixture has only the given definitions
func newBareFixture(t *testing.T, defs ...domain.ChallengeDefinition) *fixture {
	t.Helper()
	store := memory.NewStore()
	for i := range defs {
		_, err := store.UpsertChallengeDefinition(context.Background(), &defs[i])
		require.NoError(t, err)
	}
	cat := catalog.New(store, 64, time.Minute)
	return &fixture{store: store, catalog: cat, evaluator: challenge.NewEvaluator(cat)}
}

func (f *fixture) save(t *testing.T, c *domain.Catch) *domain.Catch {
	t.Helper()
	if c.AccountID == "" {
		c.AccountID = "acct"
	}
	require.NoError(t, f.store.SaveCatch(context.Background(), c))
	return c
}

func (f *fixture) evaluate(t *testing.T, c *domain.Catch) *challenge.Result {
	t.Helper()
	var result *challenge.Result
	err := f.store.WithAccountTx(context.Background(), c.AccountID, func(ctx context.Context, tx repository.Tx) error {
		var err error
		result, err = f.evaluator.EvaluateCatch(ctx, tx, c, now)
		return err
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) progress(t *testing.T, slug string) *domain.ChallengeProgress {
	t.Helper()
	var row *domain.ChallengeProgress
	err := f.store.WithAccountTx(context.Background(), "acct", func(ctx context.Context, tx repository.Tx) error {
		var err error
		row, err = tx.GetChallengeProgress(ctx, "acct", slug)
		return err
	})
	require.NoError(t, err)
	return row
}

func countReason(entries []domain.XPTransaction, reason domain.XPReason) int {
	n := 0
	for _, e := range entries {
		if e.Reason == reason {
			n++
		}
	}
	return n
}

func TestEvaluateCatch_BigBassAtDawn(t *testing.T) {
	f := newFixture(t)
	f.save(t, &domain.Catch{ID: "c0", Species: "Bass", HasPhoto: true, CaughtAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)})
	c := f.save(t, &domain.Catch{ID: "c1", Species: "Bass", HasPhoto: true, WeightKg: ptr(6.0), CaughtAt: time.Date(2024, 6, 3, 5, 30, 0, 0, time.UTC)})

	result := f.evaluate(t, c)

	assert.ElementsMatch(t, []string{"first_catch", "big_fish_5kg"}, result.CompletedSlugs())
	assert.Equal(t, 25+50, result.XPAwarded())
	assert.Contains(t, result.Skipped, "catch_bass", "uncatalogued species rule is skipped")

	dawn := f.progress(t, "dawn_patrol")
	require.NotNil(t, dawn)
	assert.Equal(t, 1, dawn.Progress)
	assert.Equal(t, 5, dawn.Target)
	assert.False(t, dawn.IsCompleted())

	early := f.progress(t, "early_bird")
	require.NotNil(t, early)
	assert.Equal(t, 1, early.Progress)

	assert.Nil(t, f.progress(t, "big_fish_10kg"))
	assert.Nil(t, f.progress(t, "night_owl"))

	streak := f.progress(t, "streak_4_weeks")
	require.NotNil(t, streak)
	assert.Equal(t, 2, streak.Progress)

	big := f.progress(t, "big_fish_5kg")
	require.NotNil(t, big)
	assert.Equal(t, 50, big.XPAwarded)
	assert.Equal(t, domain.ChallengeCompleted, domain.StateOf(big))

	assert.Equal(t, 2, countReason(f.store.Ledger("acct"), domain.ReasonChallengeCompleted))
}

func TestEvaluateCatch_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	c := f.save(t, &domain.Catch{ID: "c1", Species: "Northern Pike", HasPhoto: true, WeightKg: ptr(6.0), CaughtAt: time.Date(2024, 6, 3, 5, 30, 0, 0, time.UTC)})

	first := f.evaluate(t, c)
	require.NotEmpty(t, first.Completed)
	ledger := f.store.Ledger("acct")

	second := f.evaluate(t, c)
	assert.Empty(t, second.Completed)
	assert.Empty(t, second.Changed)
	assert.Equal(t, ledger, f.store.Ledger("acct"))

	dawn := f.progress(t, "dawn_patrol")
	require.NotNil(t, dawn)
	assert.Equal(t, 1, dawn.Progress, "the same catch never increments twice")
}

func TestEvaluateCatch_PhotoGate(t *testing.T) {
	f := newFixture(t)
	c := f.save(t, &domain.Catch{ID: "c1", Species: "Zander", HasPhoto: false, WeightKg: ptr(11.0), CaughtAt: now})

	result := f.evaluate(t, c)

	assert.Empty(t, result.Completed)
	assert.Empty(t, result.Changed)
	assert.Nil(t, f.progress(t, "first_catch"))
	assert.Empty(t, f.store.Ledger("acct"))
}

func TestEvaluateCatch_SpeciesAndCountry(t *testing.T) {
	f := newFixture(t)
	c := f.save(t, &domain.Catch{ID: "c1", Species: " common CARP ", HasPhoto: true, CaughtAt: now, CountryCode: ptr("gb")})

	result := f.evaluate(t, c)

	assert.Subset(t, result.CompletedSlugs(), []string{"first_catch", "catch_common_carp", "gb_first_catch"})
	assert.Equal(t, []string{"GB"}, result.Countries)
	assert.Equal(t, []string{"GB"}, f.store.Account("acct").CountriesFished)

	tour := f.progress(t, "european_tour")
	require.NotNil(t, tour)
	assert.Equal(t, 1, tour.Progress)

	countries := f.progress(t, "countries_3")
	require.NotNil(t, countries)
	assert.Equal(t, 1, countries.Progress)
}

func TestEvaluateCatch_CountryScopeMismatchSkips(t *testing.T) {
	f := newBareFixture(t, domain.ChallengeDefinition{
		Slug: "gb_first_catch", Target: 1, XPReward: 10, Active: true,
		Scope: domain.ScopeCountry, ScopeValue: ptr("IE"),
	})
	c := f.save(t, &domain.Catch{ID: "c1", Species: "Pike", HasPhoto: true, CaughtAt: now, CountryCode: ptr("GB")})

	result := f.evaluate(t, c)

	assert.Contains(t, result.Skipped, "gb_first_catch")
	assert.Nil(t, f.progress(t, "gb_first_catch"))
}

func TestEvaluateCatch_DefinitionTargetWins(t *testing.T) {
	f := newBareFixture(t, domain.ChallengeDefinition{Slug: "big_fish_5kg", Target: 2, XPReward: 80, Active: true})

	c1 := f.save(t, &domain.Catch{ID: "c1", Species: "Pike", HasPhoto: true, WeightKg: ptr(5.5), CaughtAt: now})
	result := f.evaluate(t, c1)
	assert.Empty(t, result.Completed)

	row := f.progress(t, "big_fish_5kg")
	require.NotNil(t, row)
	assert.Equal(t, 1, row.Progress)
	assert.Equal(t, 2, row.Target)

	c2 := f.save(t, &domain.Catch{ID: "c2", Species: "Pike", HasPhoto: true, WeightKg: ptr(7.0), CaughtAt: now.Add(time.Minute)})
	result = f.evaluate(t, c2)
	assert.Equal(t, []string{"big_fish_5kg"}, result.CompletedSlugs())
	assert.Equal(t, 80, result.XPAwarded())

	// Completed rows keep their progress and award
	c3 := f.save(t, &domain.Catch{ID: "c3", Species: "Pike", HasPhoto: true, WeightKg: ptr(9.0), CaughtAt: now.Add(2 * time.Minute)})
	result = f.evaluate(t, c3)
	assert.Empty(t, result.Completed)
	assert.Equal(t, 2, f.progress(t, "big_fish_5kg").Progress)
}

func TestEvaluateCatch_InactiveDefinitionSkips(t *testing.T) {
	f := newBareFixture(t,
		domain.ChallengeDefinition{Slug: "big_fish_5kg", Target: 1, XPReward: 50, Active: false},
		domain.ChallengeDefinition{Slug: "first_catch", Target: 1, XPReward: 25, Active: true},
	)
	c := f.save(t, &domain.Catch{ID: "c1", Species: "Pike", HasPhoto: true, WeightKg: ptr(6.0), CaughtAt: now})

	result := f.evaluate(t, c)

	assert.Equal(t, []string{"first_catch"}, result.CompletedSlugs())
	assert.Contains(t, result.Skipped, "big_fish_5kg")
	assert.Nil(t, f.progress(t, "big_fish_5kg"))
}

func TestEvaluateCatch_ProgressNeverRegresses(t *testing.T) {
	f := newBareFixture(t, domain.ChallengeDefinition{Slug: "catches_10", Target: 10, XPReward: 50, Active: true})
	for i, id := range []string{"c1", "c2", "c3"} {
		f.save(t, &domain.Catch{ID: id, Species: "Pike", HasPhoto: true, CaughtAt: now.Add(time.Duration(i) * time.Minute)})
	}
	c3, err := f.store.GetCatch(context.Background(), "acct", "c3")
	require.NoError(t, err)
	f.evaluate(t, c3)
	assert.Equal(t, 3, f.progress(t, "catches_10").Progress)

	// A soft-deleted catch lowers the metric, but a forward pass keeps the higher value
	require.NoError(t, f.store.DeleteCatchRecord(context.Background(), "acct", "c1", now))
	c2, err := f.store.GetCatch(context.Background(), "acct", "c2")
	require.NoError(t, err)
	f.evaluate(t, c2)
	assert.Equal(t, 3, f.progress(t, "catches_10").Progress)
}

func TestEvaluateCatch_LinksOnlyIncrementRules(t *testing.T) {
	f := newFixture(t)
	c := f.save(t, &domain.Catch{ID: "c1", Species: "Northern Pike", HasPhoto: true, CountryCode: ptr("GB"), CaughtAt: time.Date(2024, 6, 3, 5, 30, 0, 0, time.UTC)})
	f.evaluate(t, c)

	err := f.store.WithAccountTx(context.Background(), "acct", func(ctx context.Context, tx repository.Tx) error {
		ids, err := tx.ListProgressIDsForCatch(ctx, "c1")
		require.NoError(t, err)
		require.NotEmpty(t, ids)

		var linked []string
		for _, id := range ids {
			row, err := tx.GetChallengeProgressByID(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, row)
			rule, _, ok := challenge.ResolveRule(row.Slug)
			require.True(t, ok, row.Slug)
			assert.Equal(t, challenge.KindIncrement, rule.Kind, row.Slug)
			linked = append(linked, row.Slug)
		}
		assert.Contains(t, linked, "dawn_patrol")
		assert.Contains(t, linked, "catch_northern_pike")
		assert.NotContains(t, linked, "first_catch")
		assert.NotContains(t, linked, "gb_first_catch")
		return nil
	})
	require.NoError(t, err)
}

func (f *fixture) reverse(t *testing.T, catchID string) []challenge.Revocation {
	t.Helper()
	require.NoError(t, f.store.DeleteCatchRecord(context.Background(), "acct", catchID, now))
	var revoked []challenge.Revocation
	err := f.store.WithAccountTx(context.Background(), "acct", func(ctx context.Context, tx repository.Tx) error {
		var err error
		revoked, err = f.evaluator.ReverseCatch(ctx, tx, "acct", catchID, now)
		return err
	})
	require.NoError(t, err)
	return revoked
}

func revokedSlugs(revoked []challenge.Revocation) []string {
	out := make([]string, 0, len(revoked))
	for _, r := range revoked {
		out = append(out, r.Slug)
	}
	return out
}

func TestReverseCatch_KeepsCompletionsStillBackedByHistory(t *testing.T) {
	f := newFixture(t)
	c1 := f.save(t, &domain.Catch{ID: "c1", Species: "Northern Pike", HasPhoto: true, CountryCode: ptr("GB"), CaughtAt: now})
	c2 := f.save(t, &domain.Catch{ID: "c2", Species: "northern pike", HasPhoto: true, CountryCode: ptr("GB"), CaughtAt: now.Add(time.Minute)})
	f.evaluate(t, c1)
	f.evaluate(t, c2)
	require.True(t, f.progress(t, "catch_northern_pike").IsCompleted())
	require.Equal(t, 2, f.progress(t, "gb_catches_10").Progress)

	revoked := f.reverse(t, "c1")

	assert.Empty(t, revoked)
	assert.True(t, f.progress(t, "first_catch").IsCompleted())
	assert.True(t, f.progress(t, "gb_first_catch").IsCompleted())
	assert.True(t, f.progress(t, "catch_northern_pike").IsCompleted(), "c2 still backs the species completion")
	assert.Equal(t, 1, f.progress(t, "catches_10").Progress)
	assert.Equal(t, 1, f.progress(t, "gb_catches_10").Progress)
	assert.Zero(t, countReason(f.store.Ledger("acct"), domain.ReasonChallengeRevoked))

	revoked = f.reverse(t, "c2")

	assert.Subset(t, revokedSlugs(revoked), []string{"first_catch", "gb_first_catch", "catch_northern_pike"})
	paid := 0
	for _, r := range revoked {
		if r.XP > 0 {
			paid++
		}
	}
	assert.Equal(t, paid, countReason(f.store.Ledger("acct"), domain.ReasonChallengeRevoked))
	for _, slug := range []string{"first_catch", "gb_first_catch", "catch_northern_pike", "catches_10", "gb_catches_10"} {
		row := f.progress(t, slug)
		require.NotNil(t, row, slug)
		assert.Zero(t, row.Progress, slug)
		assert.False(t, row.IsCompleted(), slug)
	}
}

func TestReverseCatch_ProgressCappedAtTarget(t *testing.T) {
	f := newBareFixture(t,
		domain.ChallengeDefinition{Slug: "species_5", Target: 5, XPReward: 100, Active: true},
		domain.ChallengeDefinition{Slug: "catches_10", Target: 3, XPReward: 40, Active: true},
	)
	for i := 0; i < 7; i++ {
		c := f.save(t, &domain.Catch{ID: fmt.Sprintf("c%d", i), Species: "Bass", HasPhoto: true, CaughtAt: now.Add(time.Duration(i) * time.Minute)})
		f.evaluate(t, c)
	}
	require.Equal(t, 1, f.progress(t, "species_5").Progress)
	require.True(t, f.progress(t, "catches_10").IsCompleted())

	revoked := f.reverse(t, "c3")
	assert.Empty(t, revoked)

	species := f.progress(t, "species_5")
	assert.Equal(t, 1, species.Progress)
	assert.False(t, species.IsCompleted())

	catches := f.progress(t, "catches_10")
	assert.Equal(t, 3, catches.Progress)
	assert.True(t, catches.IsCompleted())

	// Another duplicate species never completes the distinct species row
	c := f.save(t, &domain.Catch{ID: "c7", Species: "Bass", HasPhoto: true, CaughtAt: now.Add(10 * time.Minute)})
	result := f.evaluate(t, c)
	assert.Empty(t, result.Completed)
	assert.Equal(t, 1, f.progress(t, "species_5").Progress)
}

func TestEvaluateSession_SessionAndLocationRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := &domain.Session{ID: "s1", AccountID: "acct", StartedAt: now, EndedAt: ptr(now.Add(30 * time.Minute))}
	require.NoError(t, f.store.SaveSession(ctx, sess))
	f.save(t, &domain.Catch{ID: "c1", Species: "Pike", HasPhoto: true, CaughtAt: now, SessionID: ptr("s1"), Latitude: ptr(51.5), Longitude: ptr(-0.12)})

	var result *challenge.Result
	err := f.store.WithAccountTx(ctx, "acct", func(ctx context.Context, tx repository.Tx) error {
		var err error
		result, err = f.evaluator.EvaluateSession(ctx, tx, sess, now)
		return err
	})
	require.NoError(t, err)
	assert.Empty(t, result.Completed)

	sessions := f.progress(t, "sessions_10")
	require.NotNil(t, sessions)
	assert.Equal(t, 1, sessions.Progress)

	explorer := f.progress(t, "explorer_5")
	require.NotNil(t, explorer)
	assert.Equal(t, 1, explorer.Progress)

	assert.Nil(t, f.progress(t, "first_catch"), "session passes never run catch rules")
}

// conflictTx fails the first n versioned updates
type conflictTx struct {
	repository.Tx
	remaining int
}

func (c *conflictTx) UpdateChallengeProgress(ctx context.Context, p *domain.ChallengeProgress) error {
	if c.remaining > 0 {
		c.remaining--
		return domain.ErrConcurrencyConflict
	}
	return c.Tx.UpdateChallengeProgress(ctx, p)
}

func TestEvaluateCatch_ConflictRetriesOnceThenSkips(t *testing.T) {
	tests := []struct {
		name      string
		conflicts int
		progress  int
		skipped   bool
	}{
		{"retry succeeds", 1, 2, false},
		{"second conflict skips", 2, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBareFixture(t, domain.ChallengeDefinition{Slug: "catches_10", Target: 10, XPReward: 50, Active: true})
			c1 := f.save(t, &domain.Catch{ID: "c1", Species: "Pike", HasPhoto: true, CaughtAt: now})
			f.evaluate(t, c1)
			c2 := f.save(t, &domain.Catch{ID: "c2", Species: "Pike", HasPhoto: true, CaughtAt: now.Add(time.Minute)})

			var result *challenge.Result
			err := f.store.WithAccountTx(context.Background(), "acct", func(ctx context.Context, tx repository.Tx) error {
				var err error
				result, err = f.evaluator.EvaluateCatch(ctx, &conflictTx{Tx: tx, remaining: tt.conflicts}, c2, now)
				return err
			})
			require.NoError(t, err)

			assert.Equal(t, tt.skipped, contains(result.Skipped, "catches_10"))
			assert.Equal(t, tt.progress, f.progress(t, "catches_10").Progress)
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
