package metrics

import (
	"context"

	"github.com/osse101/CatchLog_Go/internal/event"
	"github.com/osse101/CatchLog_Go/internal/logger"
)

// EventMetricsCollector subscribes to engine events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all engine event types
func (e *EventMetricsCollector) Register(bus event.Bus) error {
	eventTypes := []event.Type{
		event.XPAwarded,
		event.LevelUp,
		event.ChallengeCompleted,
		event.ChallengeRevoked,
		event.XPReversed,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}

	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	var err error
	switch evt.Type {
	case event.XPAwarded:
		var p event.XPAwardedPayloadV1
		if p, err = event.DecodePayload[event.XPAwardedPayloadV1](evt.Payload); err == nil {
			XPAwarded.WithLabelValues(p.Reason).Add(float64(p.Amount))
		}

	case event.LevelUp:
		var p event.LevelUpPayloadV1
		if p, err = event.DecodePayload[event.LevelUpPayloadV1](evt.Payload); err == nil && p.NewLevel > p.OldLevel {
			LevelUps.Add(float64(p.NewLevel - p.OldLevel))
		}

	case event.ChallengeCompleted:
		var p event.ChallengePayloadV1
		if p, err = event.DecodePayload[event.ChallengePayloadV1](evt.Payload); err == nil {
			ChallengesCompleted.WithLabelValues(p.Slug).Inc()
		}

	case event.ChallengeRevoked:
		var p event.ChallengePayloadV1
		if p, err = event.DecodePayload[event.ChallengePayloadV1](evt.Payload); err == nil {
			ChallengesRevoked.WithLabelValues(p.Slug).Inc()
		}

	case event.XPReversed:
		var p event.XPReversedPayloadV1
		if p, err = event.DecodePayload[event.XPReversedPayloadV1](evt.Payload); err == nil {
			XPReversed.Add(float64(p.Amount))
		}
	}

	if err != nil {
		EventHandlerErrors.WithLabelValues(string(evt.Type)).Inc()
		log.Debug(LogMsgUnexpectedPayload, "type", evt.Type, "error", err)
		return nil
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}

// RecordDeadLetter counts an event that exhausted its redelivery attempts
func RecordDeadLetter(evt event.Event) {
	EventsDeadLettered.WithLabelValues(string(evt.Type)).Inc()
}
