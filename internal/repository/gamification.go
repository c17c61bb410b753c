package repository

import (
	"context"
	"time"

	"github.com/osse101/CatchLog_Go/internal/domain"
)

// History defines the read-only aggregate lookups the engine evaluates against.
// Deleted catches are never counted.
type History interface {
	CountCatches(ctx context.Context, accountID string) (int, error)
	// CountCatchesSince counts catches recorded (created_at) at or after since.
	CountCatchesSince(ctx context.Context, accountID string, since time.Time) (int, error)
	DistinctSpeciesCount(ctx context.Context, accountID string) (int, error)
	HasPriorCatchOfSpecies(ctx context.Context, accountID, species, excludeCatchID string) (bool, error)
	CountPhotographedCatches(ctx context.Context, accountID string) (int, error)
	DistinctPhotographedLocationBuckets(ctx context.Context, accountID string, minSessionMinutes float64) (int, error)
	DistinctCountryCodes(ctx context.Context, accountID string) ([]string, error)
	CountryCatchCount(ctx context.Context, accountID, countryCode string) (int, error)
	CountrySpeciesCount(ctx context.Context, accountID, countryCode string) (int, error)
	DistinctMoonPhases(ctx context.Context, accountID string) ([]string, error)
	CatchTimestamps(ctx context.Context, accountID string) ([]time.Time, error)
	SessionDurationMinutes(ctx context.Context, accountID, sessionID string) (minutes float64, ended bool, err error)
	CountQualifyingSessions(ctx context.Context, accountID string, minSessionMinutes float64) (int, error)
	WeeklySpeciesBonusPoints(ctx context.Context, species string, weekStart time.Time) (int, error)
}

// ChallengeProgress defines progress row and contribution link access
type ChallengeProgress interface {
	// GetChallengeProgress returns nil, nil when the account has not started the challenge
	GetChallengeProgress(ctx context.Context, accountID, slug string) (*domain.ChallengeProgress, error)
	GetChallengeProgressByID(ctx context.Context, progressID string) (*domain.ChallengeProgress, error)
	ListChallengeProgress(ctx context.Context, accountID string) ([]domain.ChallengeProgress, error)
	// InsertChallengeProgress returns domain.ErrConcurrencyConflict if the row already exists
	InsertChallengeProgress(ctx context.Context, progress *domain.ChallengeProgress) error
	// UpdateChallengeProgress writes only if the stored version equals progress.Version,
	// then bumps progress.Version. A stale version returns domain.ErrConcurrencyConflict.
	UpdateChallengeProgress(ctx context.Context, progress *domain.ChallengeProgress) error

	// AddChallengeCatchLink reports whether a new link was inserted
	AddChallengeCatchLink(ctx context.Context, progressID, catchID string) (bool, error)
	RemoveChallengeCatchLink(ctx context.Context, progressID, catchID string) error
	CountChallengeCatchLinks(ctx context.Context, progressID string) (int, error)
	ListProgressIDsForCatch(ctx context.Context, catchID string) ([]string, error)
}

// Ledger defines XP transaction access
type Ledger interface {
	AppendLedgerEntry(ctx context.Context, entry *domain.XPTransaction) error
	// FindLedgerEntry returns the newest matching entry, or nil, nil
	FindLedgerEntry(ctx context.Context, accountID string, reason domain.XPReason, referenceID string) (*domain.XPTransaction, error)
	NegateLedgerEntry(ctx context.Context, entryID string, at time.Time) error
	// SumLedger sums the amounts of entries that have not been reversed
	SumLedger(ctx context.Context, accountID string) (int64, error)
}

// Accounts defines access to the per-account aggregate
type Accounts interface {
	// GetAccount returns the aggregate, creating a zero-XP level 1 row if needed
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	SetAccountXP(ctx context.Context, accountID string, xp int64, level int) error
	SetCachedCountries(ctx context.Context, accountID string, codes []string) error
}

// Tx is the account-scoped unit of work handed to WithAccountTx.
// Either every write made through it commits, or none does.
type Tx interface {
	History
	ChallengeProgress
	Ledger
	Accounts
}

// Catalog defines challenge definition and species catalog storage
type Catalog interface {
	ListChallengeDefinitions(ctx context.Context) ([]domain.ChallengeDefinition, error)
	GetChallengeDefinition(ctx context.Context, slug string) (*domain.ChallengeDefinition, error)
	UpsertChallengeDefinition(ctx context.Context, def *domain.ChallengeDefinition) (inserted bool, err error)
	ListSpecies(ctx context.Context) ([]domain.SpeciesInfo, error)
	GetSpecies(ctx context.Context, name string) (*domain.SpeciesInfo, error)
	UpsertSpecies(ctx context.Context, info domain.SpeciesInfo) error
}

// Logbook defines the primary logbook writes the engine is layered on.
// They are owned by the surrounding application; the engine only reads their results.
type Logbook interface {
	SaveCatch(ctx context.Context, c *domain.Catch) error
	GetCatch(ctx context.Context, accountID, catchID string) (*domain.Catch, error)
	DeleteCatchRecord(ctx context.Context, accountID, catchID string, at time.Time) error
	SaveSession(ctx context.Context, s *domain.Session) error
	SetWeeklySpeciesBonus(ctx context.Context, bonus domain.WeeklySpeciesBonus) error
	ListAccountIDs(ctx context.Context) ([]string, error)
}

// Store is the full storage surface used by the gamification service
type Store interface {
	Catalog
	Logbook

	// WithAccountTx runs fn with mutual exclusion for accountID inside one atomic unit.
	// Any error returned by fn discards every write made through tx.
	WithAccountTx(ctx context.Context, accountID string, fn func(ctx context.Context, tx Tx) error) error
}
