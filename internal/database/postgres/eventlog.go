package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/CatchLog_Go/internal/eventlog"
)

type eventLogRepository struct {
	db *pgxpool.Pool
}

// NewEventLogRepository creates a new PostgreSQL event log repository
func NewEventLogRepository(db *pgxpool.Pool) eventlog.Repository {
	return &eventLogRepository{db: db}
}

// Append stores one event
func (r *eventLogRepository) Append(ctx context.Context, eventType string, accountID *string, payload, metadata map[string]any) error {
	if _, err := r.db.Exec(ctx, sqlInsertEvent, eventType, accountID, payload, metadata); err != nil {
		return fmt.Errorf(ErrMsgLogEvent, err)
	}
	return nil
}

// List builds the filtered query newest first
func (r *eventLogRepository) List(ctx context.Context, filter eventlog.Query) ([]eventlog.Entry, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(sqlSelectEvents)

	args := []any{}
	argNum := 1

	if filter.AccountID != nil {
		fmt.Fprintf(&queryBuilder, " AND account_id = $%d", argNum)
		args = append(args, *filter.AccountID)
		argNum++
	}

	if filter.EventType != nil {
		fmt.Fprintf(&queryBuilder, " AND event_type = $%d", argNum)
		args = append(args, *filter.EventType)
		argNum++
	}

	if filter.Since != nil {
		fmt.Fprintf(&queryBuilder, " AND created_at >= $%d", argNum)
		args = append(args, *filter.Since)
		argNum++
	}

	if filter.Until != nil {
		fmt.Fprintf(&queryBuilder, " AND created_at <= $%d", argNum)
		args = append(args, *filter.Until)
		argNum++
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	if filter.Limit > 0 {
		fmt.Fprintf(&queryBuilder, " LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgGetEvents, err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (eventlog.Entry, error) {
		var evt eventlog.Entry
		err := row.Scan(&evt.ID, &evt.EventType, &evt.AccountID, &evt.Payload, &evt.Metadata, &evt.CreatedAt)
		return evt, err
	})
	if err != nil {
		return nil, fmt.Errorf(ErrMsgGetEvents, err)
	}
	return events, nil
}

// Prune deletes entries past the retention window
func (r *eventLogRepository) Prune(ctx context.Context, retentionDays int) (int64, error) {
	result, err := r.db.Exec(ctx, sqlCleanupEvents, retentionDays)
	if err != nil {
		return 0, fmt.Errorf(ErrMsgCleanupEvents, err)
	}
	return result.RowsAffected(), nil
}
