package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/logger"
	"github.com/osse101/CatchLog_Go/internal/metrics"
	"github.com/osse101/CatchLog_Go/internal/repository"
	"github.com/osse101/CatchLog_Go/internal/utils"
)

// Catalog is the read side of the challenge and species catalog
type Catalog interface {
	SpeciesLookup
	// GetChallengeDefinition returns nil, nil for unknown slugs
	GetChallengeDefinition(ctx context.Context, slug string) (*domain.ChallengeDefinition, error)
}

// Completion is a challenge completed during a pass
type Completion struct {
	Slug       string `json:"slug"`
	ProgressID string `json:"progress_id"`
	XP         int    `json:"xp"`
}

// Result is everything a pass changed
type Result struct {
	Completed []Completion
	Changed   []domain.ChallengeProgress
	Skipped   []string
	// Countries is set when the pass evaluated country rules and refreshed the cache
	Countries []string
}

// XPAwarded sums the XP of completed challenges
func (r *Result) XPAwarded() int {
	total := 0
	for _, c := range r.Completed {
		total += c.XP
	}
	return total
}

// CompletedSlugs lists the slugs completed in this pass
func (r *Result) CompletedSlugs() []string {
	out := make([]string, 0, len(r.Completed))
	for _, c := range r.Completed {
		out = append(out, c.Slug)
	}
	return out
}

// Evaluator runs the rule table against one account's history
type Evaluator struct {
	catalog Catalog
}

// NewEvaluator creates a new Evaluator
func NewEvaluator(catalog Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// EvaluateCatch runs catch-triggered rules. Catches without a photo are not
// evaluated; the photo grace path passes a copy with HasPhoto set.
func (e *Evaluator) EvaluateCatch(ctx context.Context, tx repository.Tx, c *domain.Catch, now time.Time) (*Result, error) {
	log := logger.FromContext(ctx)
	if !c.HasPhoto {
		log.Debug(LogMsgGateClosed, "catch_id", c.ID)
		return &Result{}, nil
	}

	snap, err := LoadSnapshot(ctx, tx, e.catalog, c.AccountID, c, c.CaughtAt.Location())
	if err != nil {
		return nil, err
	}

	pass := &Pass{Catch: c, Snapshot: snap}
	rules := RulesFor(pass, TriggerCatch)

	result, err := e.run(ctx, tx, c.AccountID, pass, rules, now)
	if err != nil {
		return nil, err
	}

	if evaluatesCountries(rules) {
		if err := tx.SetCachedCountries(ctx, c.AccountID, snap.Countries); err != nil {
			return nil, lookupErr("cache countries", err)
		}
		result.Countries = snap.Countries
		log.Debug(LogMsgCountriesUpdated, "countries", snap.Countries)
	}

	return result, nil
}

// EvaluateSession runs session-triggered rules for a completed session
func (e *Evaluator) EvaluateSession(ctx context.Context, tx repository.Tx, s *domain.Session, now time.Time) (*Result, error) {
	snap, err := LoadSnapshot(ctx, tx, e.catalog, s.AccountID, nil, s.StartedAt.Location())
	if err != nil {
		return nil, err
	}

	pass := &Pass{Session: s, Snapshot: snap}
	return e.run(ctx, tx, s.AccountID, pass, RulesFor(pass, TriggerSession), now)
}

func (e *Evaluator) run(ctx context.Context, tx repository.Tx, accountID string, pass *Pass, rules []Rule, now time.Time) (*Result, error) {
	log := logger.FromContext(ctx)
	result := &Result{}

	for _, rule := range rules {
		def, err := e.definitionFor(ctx, rule, pass)
		if errors.Is(err, domain.ErrInvalidChallengeDefinition) {
			log.Debug(LogMsgRuleSkipped, "slug", rule.Slug, "reason", metrics.SkipReasonInactive)
			metrics.RulesSkipped.WithLabelValues(metrics.SkipReasonInactive).Inc()
			result.Skipped = append(result.Skipped, rule.Slug)
			continue
		}
		if err != nil {
			return nil, err
		}

		changed, done, err := e.apply(ctx, tx, accountID, pass, rule, def, now)
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			log.Info(LogMsgRuleConflict, "slug", rule.Slug)
			changed, done, err = e.apply(ctx, tx, accountID, pass, rule, def, now)
			if errors.Is(err, domain.ErrConcurrencyConflict) {
				log.Warn(LogMsgRuleSkipped, "slug", rule.Slug, "reason", metrics.SkipReasonConflict)
				metrics.RulesSkipped.WithLabelValues(metrics.SkipReasonConflict).Inc()
				result.Skipped = append(result.Skipped, rule.Slug)
				continue
			}
		}
		if err != nil {
			return nil, err
		}

		if changed != nil {
			result.Changed = append(result.Changed, *changed)
		}
		if done != nil {
			log.Info(LogMsgChallengeDone, "slug", done.Slug, "xp", done.XP)
			result.Completed = append(result.Completed, *done)
		}
	}

	return result, nil
}

// definitionFor returns the active definition for a rule or ErrInvalidChallengeDefinition
func (e *Evaluator) definitionFor(ctx context.Context, rule Rule, pass *Pass) (*domain.ChallengeDefinition, error) {
	def, err := e.catalog.GetChallengeDefinition(ctx, rule.Slug)
	if err != nil {
		return nil, lookupErr("challenge definition "+rule.Slug, err)
	}
	if def == nil || !def.Active {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidChallengeDefinition, rule.Slug)
	}
	if def.Scope == domain.ScopeCountry && def.ScopeValue != nil && pass.Catch != nil {
		if pass.Catch.CountryCode == nil || !equalFoldCountry(*pass.Catch.CountryCode, *def.ScopeValue) {
			return nil, fmt.Errorf("%w: %s scoped to %s", domain.ErrInvalidChallengeDefinition, rule.Slug, *def.ScopeValue)
		}
	}
	return def, nil
}

// apply moves one progress row forward. It returns the written row and, when
// the write completed the challenge, the completion.
func (e *Evaluator) apply(ctx context.Context, tx repository.Tx, accountID string, pass *Pass, rule Rule, def *domain.ChallengeDefinition, now time.Time) (*domain.ChallengeProgress, *Completion, error) {
	target := rule.Target
	if def.Target > 0 {
		target = def.Target
	}

	row, err := tx.GetChallengeProgress(ctx, accountID, rule.Slug)
	if err != nil {
		return nil, nil, lookupErr("challenge progress "+rule.Slug, err)
	}
	if row != nil && row.IsCompleted() {
		// later qualifying catches still back the completion
		return nil, nil, e.link(ctx, tx, row, rule, pass)
	}

	if row == nil {
		candidate := 1
		if rule.Kind == KindAggregate {
			candidate = rule.Metric(pass.Snapshot)
		}
		if candidate <= 0 {
			return nil, nil, nil
		}

		row = &domain.ChallengeProgress{
			ID:          uuid.NewString(),
			AccountID:   accountID,
			ChallengeID: def.ID,
			Slug:        rule.Slug,
			Progress:    min(candidate, target),
			Target:      target,
			Version:     1,
			UpdatedAt:   now,
		}
		e.markCompleted(row, def, now)

		if err := tx.InsertChallengeProgress(ctx, row); err != nil {
			if errors.Is(err, domain.ErrConcurrencyConflict) {
				return nil, nil, err
			}
			return nil, nil, lookupErr("insert challenge progress", err)
		}
		if err := e.link(ctx, tx, row, rule, pass); err != nil {
			return nil, nil, err
		}
		return e.finish(ctx, tx, row, now)
	}

	if err := e.link(ctx, tx, row, rule, pass); err != nil {
		return nil, nil, err
	}

	var candidate int
	switch rule.Kind {
	case KindIncrement:
		if candidate, err = tx.CountChallengeCatchLinks(ctx, row.ID); err != nil {
			return nil, nil, lookupErr("count catch links", err)
		}
	default:
		candidate = rule.Metric(pass.Snapshot)
	}

	next := max(row.Progress, min(candidate, target))
	if next == row.Progress && row.Target == target && next < target {
		return nil, nil, nil
	}

	row.Progress = next
	row.Target = target
	row.UpdatedAt = now
	e.markCompleted(row, def, now)

	if err := tx.UpdateChallengeProgress(ctx, row); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			return nil, nil, err
		}
		return nil, nil, lookupErr("update challenge progress", err)
	}
	return e.finish(ctx, tx, row, now)
}

func (e *Evaluator) markCompleted(row *domain.ChallengeProgress, def *domain.ChallengeDefinition, now time.Time) {
	if row.Progress < row.Target {
		return
	}
	completedAt := now
	row.CompletedAt = &completedAt
	row.XPAwarded = def.XPReward
}

// link records the triggering catch as a contributor to an increment row.
// Aggregate rows are recomputed from history and carry no links.
func (e *Evaluator) link(ctx context.Context, tx repository.Tx, row *domain.ChallengeProgress, rule Rule, pass *Pass) error {
	if pass.Catch == nil || rule.Kind != KindIncrement {
		return nil
	}
	if _, err := tx.AddChallengeCatchLink(ctx, row.ID, pass.Catch.ID); err != nil {
		return lookupErr("add catch link", err)
	}
	return nil
}

// finish appends the completion ledger entry for a row that just completed
func (e *Evaluator) finish(ctx context.Context, tx repository.Tx, row *domain.ChallengeProgress, now time.Time) (*domain.ChallengeProgress, *Completion, error) {
	if !row.IsCompleted() {
		return row, nil, nil
	}

	entry := &domain.XPTransaction{
		ID:            uuid.NewString(),
		AccountID:     row.AccountID,
		Amount:        row.XPAwarded,
		Reason:        domain.ReasonChallengeCompleted,
		ReferenceType: domain.RefTypeChallenge,
		ReferenceID:   row.ID,
		Metadata:      domain.XPTxMetadata{ChallengeSlug: row.Slug},
		CreatedAt:     now,
	}
	if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
		return nil, nil, lookupErr("append challenge ledger entry", err)
	}

	return row, &Completion{Slug: row.Slug, ProgressID: row.ID, XP: row.XPAwarded}, nil
}

func equalFoldCountry(a, b string) bool {
	return utils.NormalizeCountryCode(a) == utils.NormalizeCountryCode(b)
}
