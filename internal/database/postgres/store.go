// Package postgres is the PostgreSQL repository.Store. Every account-scoped
// unit of work runs in one transaction holding an advisory lock on the account.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/repository"
	"github.com/osse101/CatchLog_Go/internal/utils"
)

// Store implements repository.Store on a pgx pool
type Store struct {
	db *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a Store over db
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// WithAccountTx serializes writers on accountID with pg_advisory_xact_lock.
// The lock is released when the transaction commits or rolls back.
func (s *Store) WithAccountTx(ctx context.Context, accountID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	pgTx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf(ErrMsgBeginTransactionFailed, err)
	}
	defer SafeRollback(ctx, pgTx)

	if _, err := pgTx.Exec(ctx, SQLAdvisoryLock, hashAccount(accountID)); err != nil {
		return fmt.Errorf(ErrMsgAcquireLockFailed, err)
	}

	if err := fn(ctx, &Tx{tx: pgTx, accountID: accountID}); err != nil {
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf(ErrMsgCommitTransactionFailed, err)
	}
	return nil
}

// SaveCatch inserts or replaces a catch
func (s *Store) SaveCatch(ctx context.Context, c *domain.Catch) error {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var country *string
	if c.CountryCode != nil {
		cc := utils.NormalizeCountryCode(*c.CountryCode)
		country = &cc
	}

	_, err := s.db.Exec(ctx, SQLUpsertCatch,
		c.ID, c.AccountID, c.Species, utils.NormalizeSpecies(c.Species), c.WeightKg, c.HasPhoto,
		c.CaughtAt, zoneOffset(c.CaughtAt), c.SessionID, c.Latitude, c.Longitude,
		c.WeatherCondition, c.WindSpeed, c.MoonPhase, country, createdAt, c.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf(ErrMsgSaveCatchFailed, err)
	}
	return nil
}

// GetCatch returns the catch, including soft-deleted ones; nil, nil when unknown
func (s *Store) GetCatch(ctx context.Context, accountID, catchID string) (*domain.Catch, error) {
	var (
		c      domain.Catch
		offset int
	)
	err := s.db.QueryRow(ctx, SQLSelectCatch, accountID, catchID).Scan(
		&c.ID, &c.AccountID, &c.Species, &c.WeightKg, &c.HasPhoto, &c.CaughtAt, &offset,
		&c.SessionID, &c.Latitude, &c.Longitude, &c.WeatherCondition, &c.WindSpeed, &c.MoonPhase,
		&c.CountryCode, &c.CreatedAt, &c.DeletedAt,
	)
	found, err := nilIfNoRows(err)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgGetCatchFailed, err)
	}
	if !found {
		return nil, nil
	}
	c.CaughtAt = inOffset(c.CaughtAt, offset)
	return &c, nil
}

// DeleteCatchRecord soft-deletes a catch
func (s *Store) DeleteCatchRecord(ctx context.Context, accountID, catchID string, at time.Time) error {
	tag, err := s.db.Exec(ctx, SQLSoftDeleteCatch, accountID, catchID, at)
	if err != nil {
		return fmt.Errorf(ErrMsgDeleteCatchFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf(ErrMsgCatchNotFound, catchID)
	}
	return nil
}

// SaveSession inserts or replaces a session
func (s *Store) SaveSession(ctx context.Context, sess *domain.Session) error {
	if _, err := s.db.Exec(ctx, SQLUpsertSession, sess.ID, sess.AccountID, sess.StartedAt, sess.EndedAt); err != nil {
		return fmt.Errorf(ErrMsgSaveSessionFailed, err)
	}
	return nil
}

// SetWeeklySpeciesBonus sets the featured species bonus for one week
func (s *Store) SetWeeklySpeciesBonus(ctx context.Context, bonus domain.WeeklySpeciesBonus) error {
	_, err := s.db.Exec(ctx, SQLUpsertWeeklyBonus,
		utils.NormalizeSpecies(bonus.Species), utils.WeekKey(bonus.WeekStart), bonus.Points)
	if err != nil {
		return fmt.Errorf(ErrMsgSetWeeklyFailed, err)
	}
	return nil
}

// ListAccountIDs returns every account with logbook or engine state, sorted
func (s *Store) ListAccountIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, SQLListAccountIDs)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgListAccountsFailed, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf(ErrMsgListAccountsFailed, err)
	}
	return ids, nil
}

func scanDefinition(row pgx.CollectableRow) (domain.ChallengeDefinition, error) {
	var (
		d     domain.ChallengeDefinition
		scope string
	)
	err := row.Scan(&d.ID, &d.Slug, &d.Name, &d.Description, &d.Target, &d.XPReward, &scope, &d.ScopeValue, &d.Active)
	d.Scope = domain.ChallengeScope(scope)
	return d, err
}

// ListChallengeDefinitions returns all definitions sorted by slug
func (s *Store) ListChallengeDefinitions(ctx context.Context) ([]domain.ChallengeDefinition, error) {
	rows, err := s.db.Query(ctx, SQLSelectDefinitions)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgListDefsFailed, err)
	}
	defs, err := pgx.CollectRows(rows, scanDefinition)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgListDefsFailed, err)
	}
	return defs, nil
}

// GetChallengeDefinition returns nil, nil for unknown slugs
func (s *Store) GetChallengeDefinition(ctx context.Context, slug string) (*domain.ChallengeDefinition, error) {
	rows, err := s.db.Query(ctx, SQLSelectDefinitionBySlug, slug)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgGetDefFailed, err)
	}
	def, err := pgx.CollectOneRow(rows, scanDefinition)
	found, err := nilIfNoRows(err)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgGetDefFailed, err)
	}
	if !found {
		return nil, nil
	}
	return &def, nil
}

// UpsertChallengeDefinition inserts or updates by slug, keeping the existing id
func (s *Store) UpsertChallengeDefinition(ctx context.Context, def *domain.ChallengeDefinition) (bool, error) {
	id := def.ID
	if id == "" {
		id = uuid.NewString()
	}
	scope := def.Scope
	if scope == "" {
		scope = domain.ScopeGlobal
	}

	var inserted bool
	err := s.db.QueryRow(ctx, SQLUpsertDefinition,
		id, def.Slug, def.Name, def.Description, def.Target, def.XPReward, string(scope), def.ScopeValue, def.Active,
	).Scan(&def.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf(ErrMsgUpsertDefFailed, err)
	}
	def.Scope = scope
	return inserted, nil
}

func scanSpecies(row pgx.CollectableRow) (domain.SpeciesInfo, error) {
	var info domain.SpeciesInfo
	err := row.Scan(&info.Name, &info.SpecimenWeightLb)
	return info, err
}

// ListSpecies returns the species catalog sorted by name
func (s *Store) ListSpecies(ctx context.Context) ([]domain.SpeciesInfo, error) {
	rows, err := s.db.Query(ctx, SQLSelectSpecies)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgListSpeciesFailed, err)
	}
	species, err := pgx.CollectRows(rows, scanSpecies)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgListSpeciesFailed, err)
	}
	return species, nil
}

// GetSpecies matches case-insensitively; nil, nil when unknown
func (s *Store) GetSpecies(ctx context.Context, name string) (*domain.SpeciesInfo, error) {
	rows, err := s.db.Query(ctx, SQLSelectSpeciesByKey, utils.NormalizeSpecies(name))
	if err != nil {
		return nil, fmt.Errorf(ErrMsgGetSpeciesFailed, err)
	}
	info, err := pgx.CollectOneRow(rows, scanSpecies)
	found, err := nilIfNoRows(err)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgGetSpeciesFailed, err)
	}
	if !found {
		return nil, nil
	}
	return &info, nil
}

// UpsertSpecies inserts or replaces a species entry
func (s *Store) UpsertSpecies(ctx context.Context, info domain.SpeciesInfo) error {
	_, err := s.db.Exec(ctx, SQLUpsertSpecies, utils.NormalizeSpecies(info.Name), info.Name, info.SpecimenWeightLb)
	if err != nil {
		return fmt.Errorf(ErrMsgUpsertSpeciesFailed, err)
	}
	return nil
}
