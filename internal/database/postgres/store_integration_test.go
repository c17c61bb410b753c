package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/repository"
)

func ptr[T any](v T) *T { return &v }

var base = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func seedCatch(t *testing.T, s *Store, id, species string, mutate func(c *domain.Catch)) {
	t.Helper()
	c := &domain.Catch{ID: id, AccountID: "acct", Species: species, CaughtAt: base, CreatedAt: base, HasPhoto: true}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, s.SaveCatch(context.Background(), c))
}

func inTx(t *testing.T, s *Store, fn func(ctx context.Context, tx repository.Tx) error) {
	t.Helper()
	require.NoError(t, s.WithAccountTx(context.Background(), "acct", fn))
}

func seedDefinition(t *testing.T, s *Store, slug string, target int) *domain.ChallengeDefinition {
	t.Helper()
	def := &domain.ChallengeDefinition{Slug: slug, Name: slug, Target: target, XPReward: 25, Scope: domain.ScopeGlobal, Active: true}
	_, err := s.UpsertChallengeDefinition(context.Background(), def)
	require.NoError(t, err)
	return def
}

func TestWithAccountTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithAccountTx(ctx, "acct", func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.AppendLedgerEntry(ctx, &domain.XPTransaction{
			ID: uuid.NewString(), AccountID: "acct", Amount: 10, Reason: domain.ReasonCatchLogged,
			ReferenceType: domain.RefTypeCatch, ReferenceID: "c1", CreatedAt: base,
		}))
		require.NoError(t, tx.SetAccountXP(ctx, "acct", 10, 1))
		return boom
	})
	require.ErrorIs(t, err, boom)

	inTx(t, s, func(ctx context.Context, tx repository.Tx) error {
		sum, err := tx.SumLedger(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, int64(0), sum)

		acct, err := tx.GetAccount(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, int64(0), acct.XP)
		assert.Equal(t, 1, acct.Level)
		assert.Empty(t, acct.CountriesFished)
		return nil
	})
}

func TestWithAccountTx_RejectsOtherAccounts(t *testing.T) {
	s := newTestStore(t)
	err := s.WithAccountTx(context.Background(), "acct", func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.CountCatches(ctx, "someone-else")
		return err
	})
	require.Error(t, err)
}

// The advisory lock must serialize read-modify-write cycles on one account
func TestWithAccountTx_SerializesSameAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithAccountTx(ctx, "acct", func(ctx context.Context, tx repository.Tx) error {
				acct, err := tx.GetAccount(ctx, "acct")
				if err != nil {
					return err
				}
				time.Sleep(5 * time.Millisecond)
				return tx.SetAccountXP(ctx, "acct", acct.XP+1, 1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	inTx(t, s, func(ctx context.Context, tx repository.Tx) error {
		acct, err := tx.GetAccount(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, int64(10), acct.XP)
		return nil
	})
}

func TestCatch_RoundTripKeepsOffset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	loc := time.FixedZone("", -5*60*60)
	caught := time.Date(2024, 6, 3, 5, 30, 0, 0, loc)

	seedCatch(t, s, "c1", "Largemouth Bass", func(c *domain.Catch) {
		c.CaughtAt = caught
		c.WeightKg = ptr(2.5)
		c.CountryCode = ptr("ie")
		c.MoonPhase = ptr("full_moon")
	})

	got, err := s.GetCatch(ctx, "acct", "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, caught.Equal(got.CaughtAt))
	assert.Equal(t, 5, got.CaughtAt.Hour())
	assert.Equal(t, "IE", *got.CountryCode)
	assert.InDelta(t, 2.5, *got.WeightKg, 0.0001)
	assert.Nil(t, got.DeletedAt)

	missing, err := s.GetCatch(ctx, "acct", "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.DeleteCatchRecord(ctx, "acct", "c1", base))
	got, err = s.GetCatch(ctx, "acct", "c1")
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)

	assert.Error(t, s.DeleteCatchRecord(ctx, "acct", "nope", base))
}

func TestHistory_IgnoresDeletedCatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedCatch(t, s, "c1", "Pike", func(c *domain.Catch) { c.CountryCode = ptr("GB"); c.MoonPhase = ptr("full_moon") })
	seedCatch(t, s, "c2", "pike", func(c *domain.Catch) {
		c.CountryCode = ptr("gb")
		c.CaughtAt = base.Add(-72 * time.Hour)
		c.CreatedAt = base.Add(time.Hour)
	})
	seedCatch(t, s, "c3", "Zander", func(c *domain.Catch) {
		c.CountryCode = ptr("FR")
		c.HasPhoto = false
		c.CaughtAt = base.Add(2 * time.Hour)
	})
	seedCatch(t, s, "c4", "Carp", func(c *domain.Catch) { c.CountryCode = ptr("DE"); c.MoonPhase = ptr("new_moon") })
	require.NoError(t, s.DeleteCatchRecord(ctx, "acct", "c4", base))

	inTx(t, s, func(ctx context.Context, tx repository.Tx) error {
		n, err := tx.CountCatches(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		n, err = tx.CountCatchesSince(ctx, "acct", base.Add(30*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = tx.DistinctSpeciesCount(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		prior, err := tx.HasPriorCatchOfSpecies(ctx, "acct", "PIKE", "c2")
		require.NoError(t, err)
		assert.True(t, prior)

		prior, err = tx.HasPriorCatchOfSpecies(ctx, "acct", "Carp", "")
		require.NoError(t, err)
		assert.False(t, prior)

		n, err = tx.CountPhotographedCatches(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		countries, err := tx.DistinctCountryCodes(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, []string{"FR", "GB"}, countries)

		n, err = tx.CountryCatchCount(ctx, "acct", "gb")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = tx.CountrySpeciesCount(ctx, "acct", "GB")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		phases, err := tx.DistinctMoonPhases(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, []string{"full_moon"}, phases)

		stamps, err := tx.CatchTimestamps(ctx, "acct")
		require.NoError(t, err)
		require.Len(t, stamps, 3)
		assert.True(t, stamps[0].Equal(base.Add(-72*time.Hour)))
		return nil
	})
}

func TestHistory_SessionsAndLocationBuckets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, &domain.Session{ID: "long", AccountID: "acct", StartedAt: base, EndedAt: ptr(base.Add(30 * time.Minute))}))
	require.NoError(t, s.SaveSession(ctx, &domain.Session{ID: "short", AccountID: "acct", StartedAt: base, EndedAt: ptr(base.Add(10 * time.Minute))}))
	require.NoError(t, s.SaveSession(ctx, &domain.Session{ID: "open", AccountID: "acct", StartedAt: base}))

	at := func(id, session string, lat, lng float64) {
		seedCatch(t, s, id, "Pike", func(c *domain.Catch) {
			c.SessionID = ptr(session)
			c.Latitude = ptr(lat)
			c.Longitude = ptr(lng)
		})
	}
	at("c1", "long", 51.5074, -0.1278)
	at("c2", "long", 51.5071, -0.1281) // same bucket
	at("c3", "long", 52.2, 0.12)
	at("c4", "short", 40.0, -3.7)

	inTx(t, s, func(ctx context.Context, tx repository.Tx) error {
		n, err := tx.DistinctPhotographedLocationBuckets(ctx, "acct", 15)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = tx.CountQualifyingSessions(ctx, "acct", 15)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		mins, ended, err := tx.SessionDurationMinutes(ctx, "acct", "long")
		require.NoError(t, err)
		assert.True(t, ended)
		assert.InDelta(t, 30.0, mins, 0.001)

		_, ended, err = tx.SessionDurationMinutes(ctx, "acct", "open")
		require.NoError(t, err)
		assert.False(t, ended)

		_, ended, err = tx.SessionDurationMinutes(ctx, "acct", "missing")
		require.NoError(t, err)
		assert.False(t, ended)
		return nil
	})
}

func TestWeeklySpeciesBonus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetWeeklySpeciesBonus(ctx, domain.WeeklySpeciesBonus{Species: "Brown Trout", WeekStart: base, Points: 15}))

	inTx(t, s, func(ctx context.Context, tx repository.Tx) error {
		points, err := tx.WeeklySpeciesBonusPoints(ctx, "brown  TROUT", base.Add(48*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 15, points)

		points, err = tx.WeeklySpeciesBonusPoints(ctx, "Brown Trout", base.Add(7*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 0, points)
		return nil
	})
}

func TestCatalog_UpsertKeepsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	def := &domain.ChallengeDefinition{Slug: "first_catch", Name: "First Catch", Target: 1, XPReward: 25, Active: true}
	inserted, err := s.UpsertChallengeDefinition(ctx, def)
	require.NoError(t, err)
	assert.True(t, inserted)
	require.NotEmpty(t, def.ID)
	firstID := def.ID

	update := &domain.ChallengeDefinition{Slug: "first_catch", Name: "First Fish", Target: 1, XPReward: 30, Active: true}
	inserted, err = s.UpsertChallengeDefinition(ctx, update)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, firstID, update.ID)

	got, err := s.GetChallengeDefinition(ctx, "first_catch")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First Fish", got.Name)
	assert.Equal(t, domain.ScopeGlobal, got.Scope)

	missing, err := s.GetChallengeDefinition(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.UpsertSpecies(ctx, domain.SpeciesInfo{Name: "Northern Pike", SpecimenWeightLb: 20}))
	sp, err := s.GetSpecies(ctx, "northern PIKE")
	require.NoError(t, err)
	require.NotNil(t, sp)
	assert.InDelta(t, 20.0, sp.SpecimenWeightLb, 0.001)

	all, err := s.ListSpecies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProgress_VersionedWritesAndLinks(t *testing.T) {
	s := newTestStore(t)
	def := seedDefinition(t, s, "species_5", 5)

	row := &domain.ChallengeProgress{
		ID: uuid.NewString(), AccountID: "acct", ChallengeID: def.ID, Slug: def.Slug,
		Progress: 1, Target: 5, UpdatedAt: base,
	}

	inTx(t, s, func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.InsertChallengeProgress(ctx, row))

		dup := *row
		dup.ID = uuid.NewString()
		assert.ErrorIs(t, tx.InsertChallengeProgress(ctx, &dup), domain.ErrConcurrencyConflict)

		added, err := tx.AddChallengeCatchLink(ctx, row.ID, "c1")
		require.NoError(t, err)
		assert.True(t, added)
		added, err = tx.AddChallengeCatchLink(ctx, row.ID, "c1")
		require.NoError(t, err)
		assert.False(t, added)
		_, err = tx.AddChallengeCatchLink(ctx, row.ID, "c2")
		require.NoError(t, err)

		n, err := tx.CountChallengeCatchLinks(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		ids, err := tx.ListProgressIDsForCatch(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, []string{row.ID}, ids)

		require.NoError(t, tx.RemoveChallengeCatchLink(ctx, row.ID, "c1"))
		ids, err = tx.ListProgressIDsForCatch(ctx, "c1")
		require.NoError(t, err)
		assert.Empty(t, ids)
		return nil
	})

	inTx(t, s, func(ctx context.Context, tx repository.Tx) error {
		stored, err := tx.GetChallengeProgress(ctx, "acct", "species_5")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, 0, stored.Version)

		stale := *stored
		stored.Progress = 2
		require.NoError(t, tx.UpdateChallengeProgress(ctx, stored))
		assert.Equal(t, 1, stored.Version)

		stale.Progress = 3
		assert.ErrorIs(t, tx.UpdateChallengeProgress(ctx, &stale), domain.ErrConcurrencyConflict)

		byID, err := tx.GetChallengeProgressByID(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, byID.Progress)

		list, err := tx.ListChallengeProgress(ctx, "acct")
		require.NoError(t, err)
		assert.Len(t, list, 1)
		return nil
	})

	// Another account's transaction cannot see or touch the row
	err := s.WithAccountTx(context.Background(), "other", func(ctx context.Context, tx repository.Tx) error {
		byID, err := tx.GetChallengeProgressByID(ctx, row.ID)
		require.NoError(t, err)
		assert.Nil(t, byID)

		added, err := tx.AddChallengeCatchLink(ctx, row.ID, "c9")
		require.NoError(t, err)
		assert.False(t, added)
		return nil
	})
	require.NoError(t, err)
}

func TestLedger_NegateAndSum(t *testing.T) {
	s := newTestStore(t)

	entry := &domain.XPTransaction{
		ID: uuid.NewString(), AccountID: "acct", Amount: 40, Reason: domain.ReasonCatchLogged,
		ReferenceType: domain.RefTypeCatch, ReferenceID: "c1", CreatedAt: base,
		Metadata: domain.XPTxMetadata{Species: "Pike", Breakdown: &domain.XPBreakdown{Base: 10, Total: 40}},
	}

	inTx(t, s, func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.AppendLedgerEntry(ctx, entry))
		require.NoError(t, tx.AppendLedgerEntry(ctx, &domain.XPTransaction{
			ID: uuid.NewString(), AccountID: "acct", Amount: 5, Reason: domain.ReasonSessionCompleted,
			ReferenceType: domain.RefTypeSession, ReferenceID: "s1", CreatedAt: base,
		}))

		sum, err := tx.SumLedger(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, int64(45), sum)

		found, err := tx.FindLedgerEntry(ctx, "acct", domain.ReasonCatchLogged, "c1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Pike", found.Metadata.Species)
		require.NotNil(t, found.Metadata.Breakdown)
		assert.Equal(t, 40, found.Metadata.Breakdown.Total)

		none, err := tx.FindLedgerEntry(ctx, "acct", domain.ReasonPhotoAdded, "c1")
		require.NoError(t, err)
		assert.Nil(t, none)

		require.NoError(t, tx.NegateLedgerEntry(ctx, entry.ID, base.Add(time.Hour)))
		require.NoError(t, tx.NegateLedgerEntry(ctx, entry.ID, base.Add(2*time.Hour)))
		assert.Error(t, tx.NegateLedgerEntry(ctx, "missing", base))

		negated, err := tx.FindLedgerEntry(ctx, "acct", domain.ReasonCatchLogged, "c1")
		require.NoError(t, err)
		assert.Equal(t, -40, negated.Amount)
		require.NotNil(t, negated.ReversedAt)
		assert.True(t, negated.ReversedAt.Equal(base.Add(time.Hour)))

		sum, err = tx.SumLedger(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, int64(5), sum)
		return nil
	})
}

func TestAccounts_CountriesAndListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.SetAccountXP(ctx, "acct", 130, 3))
		require.NoError(t, tx.SetCachedCountries(ctx, "acct", []string{"GB", "IE"}))
		acct, err := tx.GetAccount(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, int64(130), acct.XP)
		assert.Equal(t, 3, acct.Level)
		assert.Equal(t, []string{"GB", "IE"}, acct.CountriesFished)
		return nil
	})

	require.NoError(t, s.SaveCatch(ctx, &domain.Catch{ID: "x1", AccountID: "zed", Species: "Pike", CaughtAt: base}))

	ids, err := s.ListAccountIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acct", "zed"}, ids)
}

func TestHashAccount_StableAndPositive(t *testing.T) {
	assert.Equal(t, hashAccount("acct"), hashAccount("acct"))
	assert.NotEqual(t, hashAccount("acct"), hashAccount("acct2"))
	assert.Positive(t, hashAccount("acct"))
}

func TestInOffset(t *testing.T) {
	loc := time.FixedZone("", 2*60*60)
	local := time.Date(2024, 6, 3, 22, 0, 0, 0, loc)
	restored := inOffset(local.UTC(), zoneOffset(local))
	assert.Equal(t, 22, restored.Hour())
	assert.True(t, restored.Equal(local))
	assert.Equal(t, time.UTC, inOffset(local, 0).Location())
}
