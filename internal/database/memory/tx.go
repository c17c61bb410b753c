package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/repository"
	"github.com/osse101/CatchLog_Go/internal/utils"
)

// Tx is the account-scoped unit of work. All reads and writes go to a private
// copy of the account state.
type Tx struct {
	store     *Store
	accountID string
	st        *accountState
}

var _ repository.Tx = (*Tx)(nil)

func (t *Tx) state(accountID string) (*accountState, error) {
	if accountID != t.accountID {
		return nil, fmt.Errorf("account %s is outside the transaction for %s", accountID, t.accountID)
	}
	return t.st, nil
}

// live iterates catches that have not been deleted
func (t *Tx) live(accountID string, fn func(c domain.Catch)) error {
	st, err := t.state(accountID)
	if err != nil {
		return err
	}
	for _, c := range st.catches {
		if c.DeletedAt == nil {
			fn(c)
		}
	}
	return nil
}

func (t *Tx) CountCatches(ctx context.Context, accountID string) (int, error) {
	n := 0
	err := t.live(accountID, func(domain.Catch) { n++ })
	return n, err
}

// CountCatchesSince counts live catches recorded at or after since. It keys on
// CreatedAt so backdated entries still count against the submission windows.
func (t *Tx) CountCatchesSince(ctx context.Context, accountID string, since time.Time) (int, error) {
	n := 0
	err := t.live(accountID, func(c domain.Catch) {
		if !c.CreatedAt.Before(since) {
			n++
		}
	})
	return n, err
}

func (t *Tx) DistinctSpeciesCount(ctx context.Context, accountID string) (int, error) {
	seen := make(map[string]struct{})
	err := t.live(accountID, func(c domain.Catch) {
		seen[utils.NormalizeSpecies(c.Species)] = struct{}{}
	})
	return len(seen), err
}

func (t *Tx) HasPriorCatchOfSpecies(ctx context.Context, accountID, species, excludeCatchID string) (bool, error) {
	want := utils.NormalizeSpecies(species)
	found := false
	err := t.live(accountID, func(c domain.Catch) {
		if c.ID != excludeCatchID && utils.NormalizeSpecies(c.Species) == want {
			found = true
		}
	})
	return found, err
}

func (t *Tx) CountPhotographedCatches(ctx context.Context, accountID string) (int, error) {
	n := 0
	err := t.live(accountID, func(c domain.Catch) {
		if c.HasPhoto {
			n++
		}
	})
	return n, err
}

func (t *Tx) DistinctPhotographedLocationBuckets(ctx context.Context, accountID string, minSessionMinutes float64) (int, error) {
	st, err := t.state(accountID)
	if err != nil {
		return 0, err
	}
	buckets := make(map[string]struct{})
	for _, c := range st.catches {
		if c.DeletedAt != nil || !c.HasPhoto || !c.HasCoordinates() || c.SessionID == nil {
			continue
		}
		sess, ok := st.sessions[*c.SessionID]
		if !ok || sess.DurationMinutes() < minSessionMinutes {
			continue
		}
		buckets[utils.LocationBucket(*c.Latitude, *c.Longitude)] = struct{}{}
	}
	return len(buckets), nil
}

func (t *Tx) DistinctCountryCodes(ctx context.Context, accountID string) ([]string, error) {
	seen := make(map[string]struct{})
	err := t.live(accountID, func(c domain.Catch) {
		if c.CountryCode != nil && *c.CountryCode != "" {
			seen[utils.NormalizeCountryCode(*c.CountryCode)] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for cc := range seen {
		out = append(out, cc)
	}
	sort.Strings(out)
	return out, err
}

func (t *Tx) CountryCatchCount(ctx context.Context, accountID, countryCode string) (int, error) {
	want := utils.NormalizeCountryCode(countryCode)
	n := 0
	err := t.live(accountID, func(c domain.Catch) {
		if c.CountryCode != nil && utils.NormalizeCountryCode(*c.CountryCode) == want {
			n++
		}
	})
	return n, err
}

func (t *Tx) CountrySpeciesCount(ctx context.Context, accountID, countryCode string) (int, error) {
	want := utils.NormalizeCountryCode(countryCode)
	seen := make(map[string]struct{})
	err := t.live(accountID, func(c domain.Catch) {
		if c.CountryCode != nil && utils.NormalizeCountryCode(*c.CountryCode) == want {
			seen[utils.NormalizeSpecies(c.Species)] = struct{}{}
		}
	})
	return len(seen), err
}

func (t *Tx) DistinctMoonPhases(ctx context.Context, accountID string) ([]string, error) {
	seen := make(map[string]struct{})
	err := t.live(accountID, func(c domain.Catch) {
		if c.MoonPhase != nil && *c.MoonPhase != "" {
			seen[*c.MoonPhase] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, err
}

func (t *Tx) CatchTimestamps(ctx context.Context, accountID string) ([]time.Time, error) {
	var out []time.Time
	err := t.live(accountID, func(c domain.Catch) {
		out = append(out, c.CaughtAt)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, err
}

func (t *Tx) SessionDurationMinutes(ctx context.Context, accountID, sessionID string) (float64, bool, error) {
	st, err := t.state(accountID)
	if err != nil {
		return 0, false, err
	}
	sess, ok := st.sessions[sessionID]
	if !ok || sess.EndedAt == nil {
		return 0, false, nil
	}
	return sess.DurationMinutes(), true, nil
}

func (t *Tx) CountQualifyingSessions(ctx context.Context, accountID string, minSessionMinutes float64) (int, error) {
	st, err := t.state(accountID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sess := range st.sessions {
		if sess.EndedAt != nil && sess.DurationMinutes() >= minSessionMinutes {
			n++
		}
	}
	return n, nil
}

func (t *Tx) WeeklySpeciesBonusPoints(ctx context.Context, species string, weekStart time.Time) (int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.weekly[weeklyKey(species, weekStart)], nil
}

// Challenge progress

func (t *Tx) GetChallengeProgress(ctx context.Context, accountID, slug string) (*domain.ChallengeProgress, error) {
	st, err := t.state(accountID)
	if err != nil {
		return nil, err
	}
	p, ok := st.progress[slug]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *Tx) GetChallengeProgressByID(ctx context.Context, progressID string) (*domain.ChallengeProgress, error) {
	for _, p := range t.st.progress {
		if p.ID == progressID {
			return &p, nil
		}
	}
	return nil, nil
}

func (t *Tx) ListChallengeProgress(ctx context.Context, accountID string) ([]domain.ChallengeProgress, error) {
	st, err := t.state(accountID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChallengeProgress, 0, len(st.progress))
	for _, p := range st.progress {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (t *Tx) InsertChallengeProgress(ctx context.Context, progress *domain.ChallengeProgress) error {
	st, err := t.state(progress.AccountID)
	if err != nil {
		return err
	}
	if _, ok := st.progress[progress.Slug]; ok {
		return fmt.Errorf("%w: %s", domain.ErrConcurrencyConflict, progress.Slug)
	}
	st.progress[progress.Slug] = *progress
	return nil
}

func (t *Tx) UpdateChallengeProgress(ctx context.Context, progress *domain.ChallengeProgress) error {
	st, err := t.state(progress.AccountID)
	if err != nil {
		return err
	}
	current, ok := st.progress[progress.Slug]
	if !ok || current.Version != progress.Version {
		return fmt.Errorf("%w: %s", domain.ErrConcurrencyConflict, progress.Slug)
	}
	progress.Version++
	st.progress[progress.Slug] = *progress
	return nil
}

func (t *Tx) AddChallengeCatchLink(ctx context.Context, progressID, catchID string) (bool, error) {
	set, ok := t.st.links[progressID]
	if !ok {
		set = make(map[string]struct{})
		t.st.links[progressID] = set
	}
	if _, exists := set[catchID]; exists {
		return false, nil
	}
	set[catchID] = struct{}{}
	return true, nil
}

func (t *Tx) RemoveChallengeCatchLink(ctx context.Context, progressID, catchID string) error {
	if set, ok := t.st.links[progressID]; ok {
		delete(set, catchID)
	}
	return nil
}

func (t *Tx) CountChallengeCatchLinks(ctx context.Context, progressID string) (int, error) {
	return len(t.st.links[progressID]), nil
}

func (t *Tx) ListProgressIDsForCatch(ctx context.Context, catchID string) ([]string, error) {
	var ids []string
	for progressID, set := range t.st.links {
		if _, ok := set[catchID]; ok {
			ids = append(ids, progressID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Ledger

func (t *Tx) AppendLedgerEntry(ctx context.Context, entry *domain.XPTransaction) error {
	st, err := t.state(entry.AccountID)
	if err != nil {
		return err
	}
	st.ledger = append(st.ledger, *entry)
	return nil
}

func (t *Tx) FindLedgerEntry(ctx context.Context, accountID string, reason domain.XPReason, referenceID string) (*domain.XPTransaction, error) {
	st, err := t.state(accountID)
	if err != nil {
		return nil, err
	}
	for i := len(st.ledger) - 1; i >= 0; i-- {
		e := st.ledger[i]
		if e.Reason == reason && e.ReferenceID == referenceID {
			return &e, nil
		}
	}
	return nil, nil
}

func (t *Tx) NegateLedgerEntry(ctx context.Context, entryID string, at time.Time) error {
	for i := range t.st.ledger {
		e := &t.st.ledger[i]
		if e.ID != entryID {
			continue
		}
		if e.ReversedAt != nil {
			return nil
		}
		reversedAt := at
		e.Amount = -e.Amount
		e.ReversedAt = &reversedAt
		return nil
	}
	return fmt.Errorf("ledger entry %s not found", entryID)
}

func (t *Tx) SumLedger(ctx context.Context, accountID string) (int64, error) {
	st, err := t.state(accountID)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, e := range st.ledger {
		if e.ReversedAt == nil {
			sum += int64(e.Amount)
		}
	}
	return sum, nil
}

// Accounts

func (t *Tx) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	st, err := t.state(accountID)
	if err != nil {
		return nil, err
	}
	a := st.account
	a.CountriesFished = append([]string(nil), st.account.CountriesFished...)
	return &a, nil
}

func (t *Tx) SetAccountXP(ctx context.Context, accountID string, xp int64, level int) error {
	st, err := t.state(accountID)
	if err != nil {
		return err
	}
	st.account.XP = xp
	st.account.Level = level
	st.account.UpdatedAt = time.Now()
	return nil
}

func (t *Tx) SetCachedCountries(ctx context.Context, accountID string, codes []string) error {
	st, err := t.state(accountID)
	if err != nil {
		return err
	}
	st.account.CountriesFished = append([]string{}, codes...)
	st.account.UpdatedAt = time.Now()
	return nil
}
