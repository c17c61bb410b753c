package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/repository"
	"github.com/osse101/CatchLog_Go/internal/utils"
)

// Tx is the account-scoped unit of work. Queries that take a bare progress or
// entry id are still restricted to the locked account.
type Tx struct {
	tx        pgx.Tx
	accountID string
}

var _ repository.Tx = (*Tx)(nil)

func (t *Tx) check(accountID string) error {
	if accountID != t.accountID {
		return fmt.Errorf(ErrMsgOutsideTransaction, accountID, t.accountID)
	}
	return nil
}

func (t *Tx) count(ctx context.Context, what, query string, args ...any) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf(ErrMsgHistoryQueryFailed, what, err)
	}
	return n, nil
}

func (t *Tx) list(ctx context.Context, what, query string, args ...any) ([]string, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgHistoryQueryFailed, what, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf(ErrMsgHistoryQueryFailed, what, err)
	}
	return out, nil
}

func (t *Tx) CountCatches(ctx context.Context, accountID string) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	return t.count(ctx, "catch count", SQLCountCatches, accountID)
}

func (t *Tx) CountCatchesSince(ctx context.Context, accountID string, since time.Time) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	return t.count(ctx, "recent catch count", SQLCountCatchesSince, accountID, since)
}

func (t *Tx) DistinctSpeciesCount(ctx context.Context, accountID string) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	return t.count(ctx, "species count", SQLDistinctSpeciesCount, accountID)
}

func (t *Tx) HasPriorCatchOfSpecies(ctx context.Context, accountID, species, excludeCatchID string) (bool, error) {
	if err := t.check(accountID); err != nil {
		return false, err
	}
	var exists bool
	err := t.tx.QueryRow(ctx, SQLHasPriorCatchOfSpecies, accountID, utils.NormalizeSpecies(species), excludeCatchID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf(ErrMsgHistoryQueryFailed, "prior species catch", err)
	}
	return exists, nil
}

func (t *Tx) CountPhotographedCatches(ctx context.Context, accountID string) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	return t.count(ctx, "photographed catch count", SQLCountPhotographedCatches, accountID)
}

func (t *Tx) DistinctPhotographedLocationBuckets(ctx context.Context, accountID string, minSessionMinutes float64) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	return t.count(ctx, "location buckets", SQLDistinctLocationBuckets, accountID, minSessionMinutes)
}

func (t *Tx) DistinctCountryCodes(ctx context.Context, accountID string) ([]string, error) {
	if err := t.check(accountID); err != nil {
		return nil, err
	}
	return t.list(ctx, "countries", SQLDistinctCountryCodes, accountID)
}

func (t *Tx) CountryCatchCount(ctx context.Context, accountID, countryCode string) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	return t.count(ctx, "country catch count", SQLCountryCatchCount, accountID, utils.NormalizeCountryCode(countryCode))
}

func (t *Tx) CountrySpeciesCount(ctx context.Context, accountID, countryCode string) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	return t.count(ctx, "country species count", SQLCountrySpeciesCount, accountID, utils.NormalizeCountryCode(countryCode))
}

func (t *Tx) DistinctMoonPhases(ctx context.Context, accountID string) ([]string, error) {
	if err := t.check(accountID); err != nil {
		return nil, err
	}
	return t.list(ctx, "moon phases", SQLDistinctMoonPhases, accountID)
}

func (t *Tx) CatchTimestamps(ctx context.Context, accountID string) ([]time.Time, error) {
	if err := t.check(accountID); err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(ctx, SQLCatchTimestamps, accountID)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgHistoryQueryFailed, "catch timestamps", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (time.Time, error) {
		var (
			at     time.Time
			offset int
		)
		err := row.Scan(&at, &offset)
		return inOffset(at, offset), err
	})
	if err != nil {
		return nil, fmt.Errorf(ErrMsgHistoryQueryFailed, "catch timestamps", err)
	}
	return out, nil
}

func (t *Tx) SessionDurationMinutes(ctx context.Context, accountID, sessionID string) (float64, bool, error) {
	if err := t.check(accountID); err != nil {
		return 0, false, err
	}
	var sess domain.Session
	err := t.tx.QueryRow(ctx, SQLSelectSession, accountID, sessionID).Scan(&sess.StartedAt, &sess.EndedAt)
	found, err := nilIfNoRows(err)
	if err != nil {
		return 0, false, fmt.Errorf(ErrMsgHistoryQueryFailed, "session", err)
	}
	if !found || sess.EndedAt == nil {
		return 0, false, nil
	}
	return sess.DurationMinutes(), true, nil
}

func (t *Tx) CountQualifyingSessions(ctx context.Context, accountID string, minSessionMinutes float64) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	return t.count(ctx, "qualifying sessions", SQLCountQualifyingSessions, accountID, minSessionMinutes)
}

func (t *Tx) WeeklySpeciesBonusPoints(ctx context.Context, species string, weekStart time.Time) (int, error) {
	var points int
	err := t.tx.QueryRow(ctx, SQLSelectWeeklyBonus, utils.NormalizeSpecies(species), utils.WeekKey(weekStart)).Scan(&points)
	if _, err := nilIfNoRows(err); err != nil {
		return 0, fmt.Errorf(ErrMsgHistoryQueryFailed, "weekly species bonus", err)
	}
	return points, nil
}

// Challenge progress

func scanProgress(row pgx.CollectableRow) (domain.ChallengeProgress, error) {
	var p domain.ChallengeProgress
	err := row.Scan(&p.ID, &p.AccountID, &p.ChallengeID, &p.Slug, &p.Progress, &p.Target,
		&p.CompletedAt, &p.XPAwarded, &p.Version, &p.UpdatedAt)
	return p, err
}

func (t *Tx) oneProgress(ctx context.Context, query string, args ...any) (*domain.ChallengeProgress, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgProgressQueryFailed, "get", err)
	}
	p, err := pgx.CollectOneRow(rows, scanProgress)
	found, err := nilIfNoRows(err)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgProgressQueryFailed, "get", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (t *Tx) GetChallengeProgress(ctx context.Context, accountID, slug string) (*domain.ChallengeProgress, error) {
	if err := t.check(accountID); err != nil {
		return nil, err
	}
	return t.oneProgress(ctx, SQLSelectProgressBySlug, accountID, slug)
}

func (t *Tx) GetChallengeProgressByID(ctx context.Context, progressID string) (*domain.ChallengeProgress, error) {
	return t.oneProgress(ctx, SQLSelectProgressByID, progressID, t.accountID)
}

func (t *Tx) ListChallengeProgress(ctx context.Context, accountID string) ([]domain.ChallengeProgress, error) {
	if err := t.check(accountID); err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(ctx, SQLListProgress, accountID)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgProgressQueryFailed, "list", err)
	}
	out, err := pgx.CollectRows(rows, scanProgress)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgProgressQueryFailed, "list", err)
	}
	return out, nil
}

func (t *Tx) InsertChallengeProgress(ctx context.Context, p *domain.ChallengeProgress) error {
	if err := t.check(p.AccountID); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, SQLInsertProgress,
		p.ID, p.AccountID, p.ChallengeID, p.Slug, p.Progress, p.Target,
		p.CompletedAt, p.XPAwarded, p.Version, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf(ErrMsgProgressQueryFailed, "insert", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrConcurrencyConflict, p.Slug)
	}
	return nil
}

func (t *Tx) UpdateChallengeProgress(ctx context.Context, p *domain.ChallengeProgress) error {
	if err := t.check(p.AccountID); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, SQLUpdateProgress,
		p.ID, p.AccountID, p.Progress, p.Target, p.CompletedAt, p.XPAwarded, p.UpdatedAt, p.Version)
	if err != nil {
		return fmt.Errorf(ErrMsgProgressQueryFailed, "update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrConcurrencyConflict, p.Slug)
	}
	p.Version++
	return nil
}

func (t *Tx) AddChallengeCatchLink(ctx context.Context, progressID, catchID string) (bool, error) {
	tag, err := t.tx.Exec(ctx, SQLInsertCatchLink, progressID, catchID, t.accountID)
	if err != nil {
		return false, fmt.Errorf(ErrMsgLinkQueryFailed, "add", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *Tx) RemoveChallengeCatchLink(ctx context.Context, progressID, catchID string) error {
	if _, err := t.tx.Exec(ctx, SQLDeleteCatchLink, progressID, catchID, t.accountID); err != nil {
		return fmt.Errorf(ErrMsgLinkQueryFailed, "remove", err)
	}
	return nil
}

func (t *Tx) CountChallengeCatchLinks(ctx context.Context, progressID string) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, SQLCountCatchLinks, progressID, t.accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf(ErrMsgLinkQueryFailed, "count", err)
	}
	return n, nil
}

func (t *Tx) ListProgressIDsForCatch(ctx context.Context, catchID string) ([]string, error) {
	rows, err := t.tx.Query(ctx, SQLListProgressIDsForCatch, catchID, t.accountID)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgLinkQueryFailed, "list", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf(ErrMsgLinkQueryFailed, "list", err)
	}
	return ids, nil
}

// Ledger

func (t *Tx) AppendLedgerEntry(ctx context.Context, e *domain.XPTransaction) error {
	if err := t.check(e.AccountID); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, SQLInsertLedgerEntry,
		e.ID, e.AccountID, e.Amount, string(e.Reason), e.ReferenceType, e.ReferenceID, e.Metadata, e.CreatedAt, e.ReversedAt)
	if err != nil {
		return fmt.Errorf(ErrMsgLedgerQueryFailed, "append", err)
	}
	return nil
}

func (t *Tx) FindLedgerEntry(ctx context.Context, accountID string, reason domain.XPReason, referenceID string) (*domain.XPTransaction, error) {
	if err := t.check(accountID); err != nil {
		return nil, err
	}
	var (
		e         domain.XPTransaction
		reasonStr string
	)
	err := t.tx.QueryRow(ctx, SQLFindLedgerEntry, accountID, string(reason), referenceID).Scan(
		&e.ID, &e.AccountID, &e.Amount, &reasonStr, &e.ReferenceType, &e.ReferenceID, &e.Metadata, &e.CreatedAt, &e.ReversedAt)
	found, err := nilIfNoRows(err)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgLedgerQueryFailed, "find", err)
	}
	if !found {
		return nil, nil
	}
	e.Reason = domain.XPReason(reasonStr)
	return &e, nil
}

func (t *Tx) NegateLedgerEntry(ctx context.Context, entryID string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, SQLNegateLedgerEntry, entryID, t.accountID, at)
	if err != nil {
		return fmt.Errorf(ErrMsgLedgerQueryFailed, "negate", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf(ErrMsgLedgerNotFound, entryID)
	}
	return nil
}

func (t *Tx) SumLedger(ctx context.Context, accountID string) (int64, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	var sum int64
	if err := t.tx.QueryRow(ctx, SQLSumLedger, accountID).Scan(&sum); err != nil {
		return 0, fmt.Errorf(ErrMsgLedgerQueryFailed, "sum", err)
	}
	return sum, nil
}

// Accounts

func (t *Tx) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	if err := t.check(accountID); err != nil {
		return nil, err
	}
	if _, err := t.tx.Exec(ctx, SQLEnsureAccount, accountID); err != nil {
		return nil, fmt.Errorf(ErrMsgAccountQueryFailed, "create", err)
	}
	var a domain.Account
	err := t.tx.QueryRow(ctx, SQLSelectAccount, accountID).Scan(&a.ID, &a.XP, &a.Level, &a.CountriesFished, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgAccountQueryFailed, "get", err)
	}
	if a.CountriesFished == nil {
		a.CountriesFished = []string{}
	}
	return &a, nil
}

func (t *Tx) SetAccountXP(ctx context.Context, accountID string, xp int64, level int) error {
	if err := t.check(accountID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, SQLEnsureAccount, accountID); err != nil {
		return fmt.Errorf(ErrMsgAccountQueryFailed, "create", err)
	}
	if _, err := t.tx.Exec(ctx, SQLUpdateAccountXP, accountID, xp, level); err != nil {
		return fmt.Errorf(ErrMsgAccountQueryFailed, "update", err)
	}
	return nil
}

func (t *Tx) SetCachedCountries(ctx context.Context, accountID string, codes []string) error {
	if err := t.check(accountID); err != nil {
		return err
	}
	if codes == nil {
		codes = []string{}
	}
	if _, err := t.tx.Exec(ctx, SQLEnsureAccount, accountID); err != nil {
		return fmt.Errorf(ErrMsgAccountQueryFailed, "create", err)
	}
	if _, err := t.tx.Exec(ctx, SQLUpdateAccountCountries, accountID, codes); err != nil {
		return fmt.Errorf(ErrMsgAccountQueryFailed, "update", err)
	}
	return nil
}
