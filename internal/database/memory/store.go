// Package memory is an in-process repository.Store. Each account's state is
// guarded by a named lock, and a transaction works on a private copy that
// replaces the committed state only when the closure succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/CatchLog_Go/internal/concurrency"
	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/leveling"
	"github.com/osse101/CatchLog_Go/internal/repository"
	"github.com/osse101/CatchLog_Go/internal/utils"
)

type accountState struct {
	account  domain.Account
	catches  map[string]domain.Catch
	sessions map[string]domain.Session
	progress map[string]domain.ChallengeProgress // by slug
	links    map[string]map[string]struct{}      // progress id -> catch ids
	ledger   []domain.XPTransaction
}

func newAccountState(accountID string) *accountState {
	return &accountState{
		account:  domain.Account{ID: accountID, Level: leveling.MinLevel, CountriesFished: []string{}},
		catches:  make(map[string]domain.Catch),
		sessions: make(map[string]domain.Session),
		progress: make(map[string]domain.ChallengeProgress),
		links:    make(map[string]map[string]struct{}),
	}
}

func (s *accountState) clone() *accountState {
	c := &accountState{
		account:  s.account,
		catches:  make(map[string]domain.Catch, len(s.catches)),
		sessions: make(map[string]domain.Session, len(s.sessions)),
		progress: make(map[string]domain.ChallengeProgress, len(s.progress)),
		links:    make(map[string]map[string]struct{}, len(s.links)),
		ledger:   append([]domain.XPTransaction(nil), s.ledger...),
	}
	c.account.CountriesFished = append([]string(nil), s.account.CountriesFished...)
	for k, v := range s.catches {
		c.catches[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.progress {
		c.progress[k] = v
	}
	for k, set := range s.links {
		cp := make(map[string]struct{}, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		c.links[k] = cp
	}
	return c
}

// Store is the in-memory repository.Store
type Store struct {
	locks *concurrency.LockManager

	mu       sync.RWMutex
	accounts map[string]*accountState
	defs     map[string]domain.ChallengeDefinition
	species  map[string]domain.SpeciesInfo
	weekly   map[string]int
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		locks:    concurrency.NewLockManager(),
		accounts: make(map[string]*accountState),
		defs:     make(map[string]domain.ChallengeDefinition),
		species:  make(map[string]domain.SpeciesInfo),
		weekly:   make(map[string]int),
	}
}

func (s *Store) committed(accountID string) *accountState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.accounts[accountID]; ok {
		return st
	}
	return newAccountState(accountID)
}

// WithAccountTx runs fn under the account lock against a private copy of its state
func (s *Store) WithAccountTx(ctx context.Context, accountID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	return s.locks.WithLock(accountID, func() error {
		tx := &Tx{store: s, accountID: accountID, st: s.committed(accountID).clone()}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		s.mu.Lock()
		s.accounts[accountID] = tx.st
		s.mu.Unlock()
		return nil
	})
}

// mutate applies a primary write to committed state under the account lock
func (s *Store) mutate(accountID string, fn func(st *accountState) error) error {
	return s.locks.WithLock(accountID, func() error {
		st := s.committed(accountID).clone()
		if err := fn(st); err != nil {
			return err
		}
		s.mu.Lock()
		s.accounts[accountID] = st
		s.mu.Unlock()
		return nil
	})
}

// SaveCatch inserts or replaces a catch
func (s *Store) SaveCatch(ctx context.Context, c *domain.Catch) error {
	return s.mutate(c.AccountID, func(st *accountState) error {
		saved := *c
		if saved.CreatedAt.IsZero() {
			saved.CreatedAt = time.Now()
		}
		st.catches[c.ID] = saved
		return nil
	})
}

// GetCatch returns the catch, including soft-deleted ones
func (s *Store) GetCatch(ctx context.Context, accountID, catchID string) (*domain.Catch, error) {
	st := s.committed(accountID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := st.catches[catchID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// DeleteCatchRecord soft-deletes a catch
func (s *Store) DeleteCatchRecord(ctx context.Context, accountID, catchID string, at time.Time) error {
	return s.mutate(accountID, func(st *accountState) error {
		c, ok := st.catches[catchID]
		if !ok {
			return fmt.Errorf("catch %s not found", catchID)
		}
		deletedAt := at
		c.DeletedAt = &deletedAt
		st.catches[catchID] = c
		return nil
	})
}

// SaveSession inserts or replaces a session
func (s *Store) SaveSession(ctx context.Context, sess *domain.Session) error {
	return s.mutate(sess.AccountID, func(st *accountState) error {
		st.sessions[sess.ID] = *sess
		return nil
	})
}

func weeklyKey(species string, weekStart time.Time) string {
	return utils.NormalizeSpecies(species) + "|" + utils.WeekKey(weekStart)
}

// SetWeeklySpeciesBonus sets the featured species bonus for one week
func (s *Store) SetWeeklySpeciesBonus(ctx context.Context, bonus domain.WeeklySpeciesBonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weekly[weeklyKey(bonus.Species, bonus.WeekStart)] = bonus.Points
	return nil
}

// ListAccountIDs returns every account with state, sorted
func (s *Store) ListAccountIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListChallengeDefinitions returns all definitions sorted by slug
func (s *Store) ListChallengeDefinitions(ctx context.Context) ([]domain.ChallengeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChallengeDefinition, 0, len(s.defs))
	for _, d := range s.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// GetChallengeDefinition returns nil, nil for unknown slugs
func (s *Store) GetChallengeDefinition(ctx context.Context, slug string) (*domain.ChallengeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.defs[slug]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// UpsertChallengeDefinition inserts or updates by slug, keeping the existing id
func (s *Store) UpsertChallengeDefinition(ctx context.Context, def *domain.ChallengeDefinition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.defs[def.Slug]
	switch {
	case ok:
		def.ID = existing.ID
	case def.ID == "":
		def.ID = uuid.NewString()
	}
	s.defs[def.Slug] = *def
	return !ok, nil
}

// ListSpecies returns the species catalog sorted by name
func (s *Store) ListSpecies(ctx context.Context) ([]domain.SpeciesInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SpeciesInfo, 0, len(s.species))
	for _, sp := range s.species {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetSpecies matches case-insensitively; nil, nil when unknown
func (s *Store) GetSpecies(ctx context.Context, name string) (*domain.SpeciesInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.species[utils.NormalizeSpecies(name)]
	if !ok {
		return nil, nil
	}
	return &sp, nil
}

// UpsertSpecies inserts or replaces a species entry
func (s *Store) UpsertSpecies(ctx context.Context, info domain.SpeciesInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.species[utils.NormalizeSpecies(info.Name)] = info
	return nil
}

// Account returns a copy of the committed aggregate, for tests and tooling
func (s *Store) Account(accountID string) domain.Account {
	st := s.committed(accountID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := st.account
	a.CountriesFished = append([]string(nil), st.account.CountriesFished...)
	return a
}

// Ledger returns a copy of the committed ledger, for tests and tooling
func (s *Store) Ledger(accountID string) []domain.XPTransaction {
	st := s.committed(accountID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.XPTransaction(nil), st.ledger...)
}
