package challenge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/logger"
	"github.com/osse101/CatchLog_Go/internal/repository"
	"github.com/osse101/CatchLog_Go/internal/utils"
)

// Revocation is a completion withdrawn because a deleted catch dropped the
// row below target
type Revocation struct {
	Slug       string `json:"slug"`
	ProgressID string `json:"progress_id"`
	XP         int    `json:"xp"`
}

// ReverseCatch removes a deleted catch from the account's progress. Increment
// rows fall back to their remaining links and aggregate rows to the live
// history. Progress never rises here and is always capped at target; a
// completed row reopens only when the recomputed value is below target.
func (e *Evaluator) ReverseCatch(ctx context.Context, tx repository.Tx, accountID, catchID string, now time.Time) ([]Revocation, error) {
	log := logger.FromContext(ctx)

	linkedIDs, err := tx.ListProgressIDsForCatch(ctx, catchID)
	if err != nil {
		return nil, lookupErr("list catch links", err)
	}
	linked := make(map[string]struct{}, len(linkedIDs))
	for _, id := range linkedIDs {
		if err := tx.RemoveChallengeCatchLink(ctx, id, catchID); err != nil {
			return nil, lookupErr("remove catch link", err)
		}
		linked[id] = struct{}{}
	}

	rows, err := tx.ListChallengeProgress(ctx, accountID)
	if err != nil {
		return nil, lookupErr("list challenge progress", err)
	}

	var (
		snap    *HistorySnapshot
		revoked []Revocation
	)
	for i := range rows {
		row := &rows[i]

		rule, key, known := ResolveRule(row.Slug)
		var value int
		if known && rule.Kind == KindAggregate {
			if snap == nil {
				// timestamps keep their stored zones
				if snap, err = LoadSnapshot(ctx, tx, nil, accountID, nil, nil); err != nil {
					return nil, err
				}
			}
			if value, err = aggregateValue(ctx, tx, accountID, rule, key, snap); err != nil {
				return nil, err
			}
		} else {
			if _, ok := linked[row.ID]; !ok {
				continue
			}
			if value, err = tx.CountChallengeCatchLinks(ctx, row.ID); err != nil {
				return nil, lookupErr("count catch links", err)
			}
		}

		r, err := lower(ctx, tx, row, value, now)
		if err != nil {
			return nil, err
		}
		if r != nil {
			revoked = append(revoked, *r)
		}
	}

	if len(revoked) > 0 {
		log.Debug(LogMsgProgressLowered, "catch_id", catchID, "revoked", len(revoked))
	}
	return revoked, nil
}

// aggregateValue evaluates an aggregate rule against live history. Country
// templates are scoped to the country their slug was expanded from.
func aggregateValue(ctx context.Context, h repository.History, accountID string, rule Rule, key string, snap *HistorySnapshot) (int, error) {
	if rule.Metric == nil {
		return 0, nil
	}
	if key == "" || rule.Category != CategoryCountry {
		return rule.Metric(snap), nil
	}

	cc := utils.NormalizeCountryCode(key)
	scoped := *snap
	var err error
	if scoped.CountryCatches, err = h.CountryCatchCount(ctx, accountID, cc); err != nil {
		return 0, lookupErr("country catches", err)
	}
	if scoped.CountrySpecies, err = h.CountrySpeciesCount(ctx, accountID, cc); err != nil {
		return 0, lookupErr("country species", err)
	}
	return rule.Metric(&scoped), nil
}

// lower writes min(progress, value, target) and withdraws a completion that no
// longer holds. It returns the revocation, if any.
func lower(ctx context.Context, tx repository.Tx, row *domain.ChallengeProgress, value int, now time.Time) (*Revocation, error) {
	capped := min(value, row.Target)

	var r *Revocation
	if row.IsCompleted() {
		if value >= row.Target {
			return nil, nil
		}
		r = &Revocation{Slug: row.Slug, ProgressID: row.ID, XP: row.XPAwarded}
		row.Progress = capped
		row.CompletedAt = nil
		row.XPAwarded = 0
	} else {
		next := min(row.Progress, capped)
		if next == row.Progress {
			return nil, nil
		}
		row.Progress = next
	}

	row.UpdatedAt = now
	if err := tx.UpdateChallengeProgress(ctx, row); err != nil {
		return nil, lookupErr("update challenge progress", err)
	}

	if r == nil || r.XP == 0 {
		return r, nil
	}
	entry := &domain.XPTransaction{
		ID:            uuid.NewString(),
		AccountID:     row.AccountID,
		Amount:        -r.XP,
		Reason:        domain.ReasonChallengeRevoked,
		ReferenceType: domain.RefTypeChallenge,
		ReferenceID:   row.ID,
		Metadata:      domain.XPTxMetadata{ChallengeSlug: row.Slug},
		CreatedAt:     now,
	}
	if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
		return nil, lookupErr("append revoke ledger entry", err)
	}
	return r, nil
}
