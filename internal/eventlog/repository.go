package eventlog

import (
	"context"
	"time"
)

// Entry is one engine event as persisted in the audit log. Payload holds the
// flattened versioned payload; AccountID is nil for account-less events.
type Entry struct {
	ID        int64          `json:"id"`
	EventType string         `json:"event_type"`
	AccountID *string        `json:"account_id,omitempty"`
	Payload   map[string]any `json:"payload"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Query narrows a listing. Nil fields match everything.
type Query struct {
	AccountID *string
	EventType *string
	Since     *time.Time
	Until     *time.Time
	Limit     int
}

// Repository persists the event audit log
type Repository interface {
	Append(ctx context.Context, eventType string, accountID *string, payload, metadata map[string]any) error
	// List returns matching entries, newest first
	List(ctx context.Context, q Query) ([]Entry, error)
	// Prune deletes entries older than retentionDays and returns how many went
	Prune(ctx context.Context, retentionDays int) (int64, error)
}
