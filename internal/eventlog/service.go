package eventlog

import (
	"context"

	"github.com/osse101/CatchLog_Go/internal/event"
	"github.com/osse101/CatchLog_Go/internal/logger"
)

// Service handles event logging business logic
type Service interface {
	// Subscribe registers the event logger for every engine event type
	Subscribe(bus event.Bus) error

	// GetEvents returns logged events, newest first. The limit is clamped to MaxQueryLimit.
	GetEvents(ctx context.Context, filter Query) ([]Entry, error)

	// CleanupOldEvents removes events older than retention period
	CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error)
}

type service struct {
	repo Repository
}

// NewService creates a new event logging service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Subscribe registers event handlers for all engine event types
func (s *service) Subscribe(bus event.Bus) error {
	for _, eventType := range LoggedEventTypes {
		bus.Subscribe(eventType, s.handleEvent)
	}
	return nil
}

// handleEvent flattens the typed payload and writes it to the log
func (s *service) handleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	payload, err := event.DecodePayload[map[string]any](evt.Payload)
	if err != nil || payload == nil {
		log.Debug(LogMsgEventPayloadUnreadable, "type", evt.Type)
		return nil
	}

	var metadata map[string]any
	if evt.Metadata != nil {
		metadata, _ = event.DecodePayload[map[string]any](evt.Metadata)
	}

	var accountID *string
	if id := event.AccountIDOf(evt); id != "" {
		accountID = &id
	}

	if err := s.repo.Append(ctx, string(evt.Type), accountID, payload, metadata); err != nil {
		log.Error(LogMsgFailedToLogEvent, "error", err, "type", evt.Type)
		return err
	}

	log.Debug(LogMsgEventLogged, "type", evt.Type, "account_id", accountID)
	return nil
}

func (s *service) GetEvents(ctx context.Context, filter Query) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultQueryLimit
	}
	if filter.Limit > MaxQueryLimit {
		filter.Limit = MaxQueryLimit
	}
	return s.repo.List(ctx, filter)
}

// CleanupOldEvents removes events older than the retention period
func (s *service) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return s.repo.Prune(ctx, retentionDays)
}
