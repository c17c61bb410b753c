package gamification

import (
	"context"

	"github.com/osse101/CatchLog_Go/internal/challenge"
	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/event"
	"github.com/osse101/CatchLog_Go/internal/logger"
	"github.com/osse101/CatchLog_Go/internal/metrics"
	"github.com/osse101/CatchLog_Go/internal/repository"
)

// reversibleReasons are the per-catch ledger entries negated on delete
var reversibleReasons = []domain.XPReason{domain.ReasonCatchLogged, domain.ReasonPhotoAdded}

// DeleteCatch reverses a catch the logbook has already deleted. Its ledger
// entries are negated in place and challenge progress is recomputed without
// it. A challenge that falls below target loses its completion and XP.
func (s *service) DeleteCatch(ctx context.Context, accountID, catchID string) (*domain.DeleteResult, error) {
	if accountID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	ctx = logger.WithAccountID(ctx, accountID)
	log := logger.FromContext(ctx)
	now := s.now()
	defer s.observe(OperationDeleteCatch, now)

	var (
		result  *domain.DeleteResult
		revoked []challenge.Revocation
	)

	err := s.store.WithAccountTx(ctx, accountID, func(ctx context.Context, tx repository.Tx) error {
		result = &domain.DeleteResult{CatchID: catchID}
		revoked = nil

		for _, reason := range reversibleReasons {
			entry, err := tx.FindLedgerEntry(ctx, accountID, reason, catchID)
			if err != nil {
				return lookupErr("find ledger entry", err)
			}
			if entry == nil || entry.IsReversed() || entry.Amount <= 0 {
				continue
			}
			if err := tx.NegateLedgerEntry(ctx, entry.ID, now); err != nil {
				return lookupErr("negate ledger entry", err)
			}
			result.XPReversed += entry.Amount
		}

		var err error
		if revoked, err = s.evaluator.ReverseCatch(ctx, tx, accountID, catchID, now); err != nil {
			return err
		}
		for _, r := range revoked {
			log.Info(LogMsgChallengeRevoked, "slug", r.Slug, "xp", r.XP, "catch_id", catchID)
			result.ChallengesRevoked = append(result.ChallengesRevoked, r.Slug)
		}

		if _, err := refreshCountries(ctx, tx, accountID); err != nil {
			return err
		}

		result.NewXP, result.NewLevel, err = settle(ctx, tx, accountID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, OperationDeleteCatch, err)
	}

	log.Info(LogMsgCatchReversed, "catch_id", catchID, "xp_reversed", result.XPReversed, "revoked", len(revoked))

	var events []event.Event
	if result.XPReversed > 0 {
		events = append(events, event.NewXPReversedEvent(accountID, catchID, result.XPReversed))
	}
	for _, r := range revoked {
		events = append(events, event.NewChallengeRevokedEvent(accountID, r.Slug, r.XP))
	}
	s.publish(ctx, events)

	return result, nil
}

// refreshCountries rewrites the cached country list from live catches
func refreshCountries(ctx context.Context, tx repository.Tx, accountID string) ([]string, error) {
	codes, err := tx.DistinctCountryCodes(ctx, accountID)
	if err != nil {
		return nil, lookupErr("distinct countries", err)
	}
	countries := challenge.NormalizeCountries(codes)
	if err := tx.SetCachedCountries(ctx, accountID, countries); err != nil {
		return nil, lookupErr("cache countries", err)
	}
	return countries, nil
}

// Reconcile rebuilds XP and level from the ledger and the country cache from
// catch history. Drift indicates a write that bypassed the ledger.
func (s *service) Reconcile(ctx context.Context, accountID string) (*domain.ReconcileResult, error) {
	if accountID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	ctx = logger.WithAccountID(ctx, accountID)
	now := s.now()
	defer s.observe(OperationReconcile, now)

	var result *domain.ReconcileResult
	err := s.store.WithAccountTx(ctx, accountID, func(ctx context.Context, tx repository.Tx) error {
		before, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return lookupErr("get account", err)
		}
		result = &domain.ReconcileResult{AccountID: accountID, PreviousXP: before.XP}

		if result.CountriesFished, err = refreshCountries(ctx, tx, accountID); err != nil {
			return err
		}
		result.LedgerXP, result.Level, err = settle(ctx, tx, accountID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, OperationReconcile, err)
	}

	if drift := result.Drift(); drift != 0 {
		if drift < 0 {
			drift = -drift
		}
		metrics.ReconcileDrift.Add(float64(drift))
		logger.FromContext(ctx).Warn(LogMsgReconcileDrift, "previous_xp", result.PreviousXP, "ledger_xp", result.LedgerXP)
	}

	return result, nil
}
