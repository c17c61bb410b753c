package gamification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/CatchLog_Go/internal/award"
	"github.com/osse101/CatchLog_Go/internal/challenge"
	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/event"
	"github.com/osse101/CatchLog_Go/internal/leveling"
	"github.com/osse101/CatchLog_Go/internal/logger"
	"github.com/osse101/CatchLog_Go/internal/metrics"
	"github.com/osse101/CatchLog_Go/internal/ratelimit"
	"github.com/osse101/CatchLog_Go/internal/repository"
	"github.com/osse101/CatchLog_Go/internal/utils"
	"github.com/osse101/CatchLog_Go/internal/validation"
)

// Service turns logbook activity into XP, levels and challenge completions.
// Every error it returns is a soft failure: the logbook write that triggered
// the call has already happened and must not be rolled back.
type Service interface {
	// LogCatch awards a newly saved catch and evaluates its challenges
	LogCatch(ctx context.Context, c *domain.Catch) (*domain.CatchResult, error)
	// AttachPhoto credits a photo added after logging, if inside the grace period
	AttachPhoto(ctx context.Context, c *domain.Catch, attachedAt time.Time) (*domain.PhotoResult, error)
	// CompleteSession awards an ended session and evaluates session rules
	CompleteSession(ctx context.Context, s *domain.Session) (*domain.SessionResult, error)
	// DeleteCatch reverses everything a deleted catch contributed
	DeleteCatch(ctx context.Context, accountID, catchID string) (*domain.DeleteResult, error)

	// Reconcile rebuilds an account's XP, level and countries from its history
	Reconcile(ctx context.Context, accountID string) (*domain.ReconcileResult, error)
	GetAccountProgress(ctx context.Context, accountID string) (*domain.AccountProgress, error)
}

// Publisher delivers events after a pass commits
type Publisher interface {
	PublishWithRetry(ctx context.Context, evt event.Event)
}

// Option configures the service
type Option func(*service)

// WithPhotoGracePeriod overrides DefaultPhotoGracePeriod
func WithPhotoGracePeriod(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.gracePeriod = d
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	store       repository.Store
	evaluator   *challenge.Evaluator
	limiter     *ratelimit.Limiter
	publisher   Publisher
	gracePeriod time.Duration
	now         func() time.Time
}

// NewService creates the gamification service. publisher may be nil.
func NewService(
	store repository.Store,
	catalog challenge.Catalog,
	limiter *ratelimit.Limiter,
	publisher Publisher,
	opts ...Option,
) Service {
	s := &service{
		store:       store,
		evaluator:   challenge.NewEvaluator(catalog),
		limiter:     limiter,
		publisher:   publisher,
		gracePeriod: DefaultPhotoGracePeriod,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewLimiter(0, 0)
	}
	return s
}

// LogCatch runs the award and challenge pass for a catch the logbook has already saved.
// Logging the same catch twice awards it once.
func (s *service) LogCatch(ctx context.Context, c *domain.Catch) (*domain.CatchResult, error) {
	if c == nil || c.AccountID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if err := validation.GetStructValidator().ValidateStruct(c); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCatch, validation.Describe(err))
	}

	ctx = logger.WithAccountID(ctx, c.AccountID)
	log := logger.FromContext(ctx)
	now := s.now()
	defer s.observe(OperationLogCatch, now)

	var (
		result  *domain.CatchResult
		eval    *challenge.Result
		oldLvl  int
		skipped bool
	)

	err := s.store.WithAccountTx(ctx, c.AccountID, func(ctx context.Context, tx repository.Tx) error {
		result = &domain.CatchResult{CatchID: c.ID}
		eval = nil
		skipped = false

		before, err := tx.GetAccount(ctx, c.AccountID)
		if err != nil {
			return lookupErr("get account", err)
		}
		oldLvl = before.Level
		result.NewXP, result.NewLevel = before.XP, before.Level

		logged, err := tx.FindLedgerEntry(ctx, c.AccountID, domain.ReasonCatchLogged, c.ID)
		if err != nil {
			return lookupErr("find catch ledger entry", err)
		}
		if logged != nil {
			log.Debug(LogMsgCatchAlreadyLogged, "catch_id", c.ID)
			skipped = true
			return nil
		}

		limited, err := s.limiter.IsRateLimited(ctx, tx, c.AccountID, now)
		if err != nil {
			return err
		}
		if limited {
			hourly, daily := s.limiter.Limits()
			log.Info(LogMsgCatchRateLimited, "catch_id", c.ID, "rate_limited", true, "hourly_limit", hourly, "daily_limit", daily)
			result.RateLimited = true
			return nil
		}

		prior, err := tx.HasPriorCatchOfSpecies(ctx, c.AccountID, c.Species, c.ID)
		if err != nil {
			return lookupErr("prior species", err)
		}
		weekly, err := tx.WeeklySpeciesBonusPoints(ctx, c.Species, utils.WeekStart(c.CaughtAt))
		if err != nil {
			return lookupErr("weekly species bonus", err)
		}

		breakdown := award.Compute(*c, award.History{
			HasPriorCatchOfSpecies: prior,
			WeeklySpeciesBonus:     weekly,
		})
		entry := &domain.XPTransaction{
			ID:            uuid.NewString(),
			AccountID:     c.AccountID,
			Amount:        breakdown.Total,
			Reason:        domain.ReasonCatchLogged,
			ReferenceType: domain.RefTypeCatch,
			ReferenceID:   c.ID,
			Metadata:      domain.XPTxMetadata{Breakdown: &breakdown, Species: c.Species},
			CreatedAt:     now,
		}
		if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
			return lookupErr("append catch ledger entry", err)
		}
		result.Breakdown = &breakdown

		if eval, err = s.evaluator.EvaluateCatch(ctx, tx, c, now); err != nil {
			return err
		}

		if result.NewXP, result.NewLevel, err = settle(ctx, tx, c.AccountID); err != nil {
			return err
		}
		result.XPAwarded = breakdown.Total + eval.XPAwarded()
		result.ChallengesComplete = eval.CompletedSlugs()
		result.LeveledUp = result.NewLevel > oldLvl
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, OperationLogCatch, err)
	}

	if result.RateLimited {
		metrics.CatchesRateLimited.Inc()
		return result, nil
	}
	if skipped {
		return result, nil
	}

	log.Info(LogMsgCatchEvaluated, "catch_id", c.ID, "xp", result.XPAwarded, "challenges", len(result.ChallengesComplete))

	events := []event.Event{
		event.NewXPAwardedEvent(c.AccountID, domain.ReasonCatchLogged, c.ID, result.Breakdown.Total, result.NewXP),
	}
	events = append(events, completionEvents(c.AccountID, eval, result.NewXP)...)
	events = append(events, levelEvents(ctx, c.AccountID, oldLvl, result.NewLevel)...)
	s.publish(ctx, events)

	return result, nil
}

// CompleteSession awards an ended session once and runs session rules.
// Sessions shorter than the qualifying length earn nothing.
func (s *service) CompleteSession(ctx context.Context, sess *domain.Session) (*domain.SessionResult, error) {
	if sess == nil || sess.AccountID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if err := validation.GetStructValidator().ValidateStruct(sess); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSession, validation.Describe(err))
	}
	if sess.EndedAt == nil {
		return nil, fmt.Errorf("%w: session %s has not ended", domain.ErrInvalidSession, sess.ID)
	}

	ctx = logger.WithAccountID(ctx, sess.AccountID)
	log := logger.FromContext(ctx)
	now := s.now()
	defer s.observe(OperationCompleteSession, now)

	minutes := sess.DurationMinutes()
	if minutes < challenge.MinQualifyingSessionMinutes {
		log.Debug(LogMsgSessionTooShort, "session_id", sess.ID, "minutes", minutes)
		return &domain.SessionResult{SessionID: sess.ID}, nil
	}

	var (
		result  *domain.SessionResult
		eval    *challenge.Result
		oldLvl  int
		awarded int
	)

	err := s.store.WithAccountTx(ctx, sess.AccountID, func(ctx context.Context, tx repository.Tx) error {
		result = &domain.SessionResult{SessionID: sess.ID}
		awarded = 0

		before, err := tx.GetAccount(ctx, sess.AccountID)
		if err != nil {
			return lookupErr("get account", err)
		}
		oldLvl = before.Level

		existing, err := tx.FindLedgerEntry(ctx, sess.AccountID, domain.ReasonSessionCompleted, sess.ID)
		if err != nil {
			return lookupErr("find session ledger entry", err)
		}
		if existing == nil {
			entry := &domain.XPTransaction{
				ID:            uuid.NewString(),
				AccountID:     sess.AccountID,
				Amount:        award.SessionCompleted,
				Reason:        domain.ReasonSessionCompleted,
				ReferenceType: domain.RefTypeSession,
				ReferenceID:   sess.ID,
				Metadata:      domain.XPTxMetadata{SessionMins: minutes},
				CreatedAt:     now,
			}
			if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
				return lookupErr("append session ledger entry", err)
			}
			awarded = award.SessionCompleted
		}

		if eval, err = s.evaluator.EvaluateSession(ctx, tx, sess, now); err != nil {
			return err
		}

		if result.NewXP, result.NewLevel, err = settle(ctx, tx, sess.AccountID); err != nil {
			return err
		}
		result.XPAwarded = awarded + eval.XPAwarded()
		result.ChallengesComplete = eval.CompletedSlugs()
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, OperationCompleteSession, err)
	}

	log.Info(LogMsgSessionEvaluated, "session_id", sess.ID, "xp", result.XPAwarded)

	var events []event.Event
	if awarded > 0 {
		events = append(events, event.NewXPAwardedEvent(sess.AccountID, domain.ReasonSessionCompleted, sess.ID, awarded, result.NewXP))
	}
	events = append(events, completionEvents(sess.AccountID, eval, result.NewXP)...)
	events = append(events, levelEvents(ctx, sess.AccountID, oldLvl, result.NewLevel)...)
	s.publish(ctx, events)

	return result, nil
}

// GetAccountProgress returns the account's level standing and challenge rows
func (s *service) GetAccountProgress(ctx context.Context, accountID string) (*domain.AccountProgress, error) {
	if accountID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	var progress *domain.AccountProgress
	err := s.store.WithAccountTx(ctx, accountID, func(ctx context.Context, tx repository.Tx) error {
		acct, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return lookupErr("get account", err)
		}
		rows, err := tx.ListChallengeProgress(ctx, accountID)
		if err != nil {
			return lookupErr("list challenge progress", err)
		}

		level := max(acct.Level, leveling.MinLevel)
		progress = &domain.AccountProgress{
			AccountID:       accountID,
			XP:              acct.XP,
			Level:           level,
			Tier:            string(leveling.TierForLevel(level)),
			LevelProgress:   leveling.ProgressWithinLevel(acct.XP, level),
			CountriesFished: acct.CountriesFished,
			Challenges:      rows,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// settle recomputes account XP as the ledger sum and derives the level from it
func settle(ctx context.Context, tx repository.Tx, accountID string) (int64, int, error) {
	xp, err := tx.SumLedger(ctx, accountID)
	if err != nil {
		return 0, 0, lookupErr("sum ledger", err)
	}
	level := leveling.LevelForXP(xp)
	if err := tx.SetAccountXP(ctx, accountID, xp, level); err != nil {
		return 0, 0, lookupErr("set account xp", err)
	}
	return xp, level, nil
}

func lookupErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrLookupFailure, what, err)
}

func completionEvents(accountID string, eval *challenge.Result, newXP int64) []event.Event {
	if eval == nil {
		return nil
	}
	events := make([]event.Event, 0, 2*len(eval.Completed))
	for _, done := range eval.Completed {
		events = append(events,
			event.NewChallengeCompletedEvent(accountID, done.Slug, done.XP),
			event.NewXPAwardedEvent(accountID, domain.ReasonChallengeCompleted, done.ProgressID, done.XP, newXP),
		)
	}
	return events
}

func levelEvents(ctx context.Context, accountID string, oldLevel, newLevel int) []event.Event {
	if newLevel <= oldLevel {
		return nil
	}
	logger.FromContext(ctx).Info(LogMsgLevelUp, "old_level", oldLevel, "new_level", newLevel)
	return []event.Event{event.NewLevelUpEvent(accountID, oldLevel, newLevel)}
}

func (s *service) publish(ctx context.Context, events []event.Event) {
	if s.publisher == nil {
		return
	}
	for _, evt := range events {
		s.publisher.PublishWithRetry(ctx, evt)
	}
}

func (s *service) observe(operation string, start time.Time) {
	metrics.OperationDuration.WithLabelValues(operation).Observe(s.now().Sub(start).Seconds())
}

// fail logs and counts a failed pass. Nothing from the pass was committed.
func (s *service) fail(ctx context.Context, operation string, err error) error {
	metrics.EvaluationFailures.WithLabelValues(operation).Inc()
	logger.FromContext(ctx).Error(LogMsgEvaluationFailed, "operation", operation, "error", err)
	return err
}
