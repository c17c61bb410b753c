package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/CatchLog_Go/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if e.Metadata == nil {
		return nil
	}
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Engine event types
const (
	XPAwarded          Type = domain.EventTypeXPAwarded
	LevelUp            Type = domain.EventTypeLevelUp
	ChallengeCompleted Type = domain.EventTypeChallengeCompleted
	ChallengeRevoked   Type = domain.EventTypeChallengeRevoked
	XPReversed         Type = domain.EventTypeXPReversed
)

// XPAwardedPayloadV1 is the typed payload for xp.awarded events
type XPAwardedPayloadV1 struct {
	AccountID   string `json:"account_id"`
	Reason      string `json:"reason"`
	ReferenceID string `json:"reference_id"`
	Amount      int    `json:"amount"`
	NewXP       int64  `json:"new_xp"`
	Timestamp   int64  `json:"timestamp"`
}

// LevelUpPayloadV1 is the typed payload for account.level_up events
type LevelUpPayloadV1 struct {
	AccountID string `json:"account_id"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	Timestamp int64  `json:"timestamp"`
}

// ChallengePayloadV1 is the typed payload for challenge completion and revocation
type ChallengePayloadV1 struct {
	AccountID string `json:"account_id"`
	Slug      string `json:"slug"`
	XP        int    `json:"xp"`
	Timestamp int64  `json:"timestamp"`
}

// XPReversedPayloadV1 is the typed payload for xp.reversed events
type XPReversedPayloadV1 struct {
	AccountID string `json:"account_id"`
	CatchID   string `json:"catch_id"`
	Amount    int    `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// NewXPAwardedEvent creates a new xp.awarded event
func NewXPAwardedEvent(accountID string, reason domain.XPReason, referenceID string, amount int, newXP int64) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    XPAwarded,
		Payload: XPAwardedPayloadV1{
			AccountID:   accountID,
			Reason:      string(reason),
			ReferenceID: referenceID,
			Amount:      amount,
			NewXP:       newXP,
			Timestamp:   time.Now().Unix(),
		},
		Metadata: map[string]interface{}{
			MetadataKeyReason: string(reason),
		},
	}
}

// NewLevelUpEvent creates a new level-up event
func NewLevelUpEvent(accountID string, oldLevel, newLevel int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    LevelUp,
		Payload: LevelUpPayloadV1{
			AccountID: accountID,
			OldLevel:  oldLevel,
			NewLevel:  newLevel,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewChallengeCompletedEvent creates a new challenge.completed event
func NewChallengeCompletedEvent(accountID, slug string, xp int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ChallengeCompleted,
		Payload: ChallengePayloadV1{
			AccountID: accountID,
			Slug:      slug,
			XP:        xp,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewChallengeRevokedEvent creates a new challenge.revoked event
func NewChallengeRevokedEvent(accountID, slug string, xp int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ChallengeRevoked,
		Payload: ChallengePayloadV1{
			AccountID: accountID,
			Slug:      slug,
			XP:        xp,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewXPReversedEvent creates a new xp.reversed event
func NewXPReversedEvent(accountID, catchID string, amount int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    XPReversed,
		Payload: XPReversedPayloadV1{
			AccountID: accountID,
			CatchID:   catchID,
			Amount:    amount,
			Timestamp: time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers. Handlers run synchronously.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(ErrMsgHandlerFailures, len(errs), event.Type, errors.Join(errs...))
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
