package gamification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/CatchLog_Go/internal/award"
	"github.com/osse101/CatchLog_Go/internal/challenge"
	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/event"
	"github.com/osse101/CatchLog_Go/internal/logger"
	"github.com/osse101/CatchLog_Go/internal/repository"
)

// AttachPhoto credits a photo attached within the grace period of capture and
// re-runs challenge evaluation with the photo gate open. The award is paid at
// most once per catch, never when the catch was logged with its photo, and
// never for a deleted catch.
func (s *service) AttachPhoto(ctx context.Context, c *domain.Catch, attachedAt time.Time) (*domain.PhotoResult, error) {
	if c == nil || c.AccountID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	ctx = logger.WithAccountID(ctx, c.AccountID)
	log := logger.FromContext(ctx)

	if c.DeletedAt != nil {
		log.Debug(LogMsgPhotoDeletedCatch, "catch_id", c.ID)
		return &domain.PhotoResult{CatchID: c.ID}, nil
	}
	if attachedAt.Sub(c.CaughtAt) > s.gracePeriod {
		log.Debug(LogMsgPhotoOutsideGrace, "catch_id", c.ID, "elapsed", attachedAt.Sub(c.CaughtAt).String())
		return &domain.PhotoResult{CatchID: c.ID}, nil
	}

	now := s.now()
	defer s.observe(OperationAttachPhoto, now)

	var (
		result *domain.PhotoResult
		eval   *challenge.Result
		oldLvl int
	)

	err := s.store.WithAccountTx(ctx, c.AccountID, func(ctx context.Context, tx repository.Tx) error {
		result = &domain.PhotoResult{CatchID: c.ID}
		eval = nil

		before, err := tx.GetAccount(ctx, c.AccountID)
		if err != nil {
			return lookupErr("get account", err)
		}
		oldLvl = before.Level
		result.NewXP, result.NewLevel = before.XP, before.Level

		owed, err := photoAwardOwed(ctx, tx, c)
		if err != nil {
			return err
		}
		if !owed {
			log.Debug(LogMsgPhotoNotOwed, "catch_id", c.ID)
			return nil
		}

		delta := award.PhotoGraceDelta()
		entry := &domain.XPTransaction{
			ID:            uuid.NewString(),
			AccountID:     c.AccountID,
			Amount:        delta,
			Reason:        domain.ReasonPhotoAdded,
			ReferenceType: domain.RefTypeCatch,
			ReferenceID:   c.ID,
			Metadata:      domain.XPTxMetadata{Species: c.Species},
			CreatedAt:     now,
		}
		if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
			return lookupErr("append photo ledger entry", err)
		}

		withPhoto := *c
		withPhoto.HasPhoto = true
		if eval, err = s.evaluator.EvaluateCatch(ctx, tx, &withPhoto, now); err != nil {
			return err
		}

		if result.NewXP, result.NewLevel, err = settle(ctx, tx, c.AccountID); err != nil {
			return err
		}
		result.XPAwarded = delta + eval.XPAwarded()
		result.Reprocessed = true
		result.ChallengesComplete = eval.CompletedSlugs()
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, OperationAttachPhoto, err)
	}
	if !result.Reprocessed {
		return result, nil
	}

	log.Info(LogMsgPhotoReprocessed, "catch_id", c.ID, "xp", result.XPAwarded)

	events := []event.Event{
		event.NewXPAwardedEvent(c.AccountID, domain.ReasonPhotoAdded, c.ID, award.PhotoGraceDelta(), result.NewXP),
	}
	events = append(events, completionEvents(c.AccountID, eval, result.NewXP)...)
	events = append(events, levelEvents(ctx, c.AccountID, oldLvl, result.NewLevel)...)
	s.publish(ctx, events)

	return result, nil
}

// photoAwardOwed reports whether the catch was logged without its photo and
// has not been credited for one since. A catch that was never awarded, for
// example because it was rate limited, is owed nothing.
func photoAwardOwed(ctx context.Context, tx repository.Tx, c *domain.Catch) (bool, error) {
	logged, err := tx.FindLedgerEntry(ctx, c.AccountID, domain.ReasonCatchLogged, c.ID)
	if err != nil {
		return false, lookupErr("find catch ledger entry", err)
	}
	if logged == nil || logged.IsReversed() {
		return false, nil
	}
	if b := logged.Metadata.Breakdown; b != nil && b.Base >= award.BasePhoto {
		return false, nil
	}

	added, err := tx.FindLedgerEntry(ctx, c.AccountID, domain.ReasonPhotoAdded, c.ID)
	if err != nil {
		return false, lookupErr("find photo ledger entry", err)
	}
	return added == nil, nil
}
