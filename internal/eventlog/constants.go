package eventlog

import (
	"time"

	"github.com/osse101/CatchLog_Go/internal/event"
)

// LoggedEventTypes are the engine events persisted to the log
var LoggedEventTypes = []event.Type{
	event.XPAwarded,
	event.LevelUp,
	event.ChallengeCompleted,
	event.ChallengeRevoked,
	event.XPReversed,
}

// Defaults
const (
	DefaultRetentionDays = 90
	DefaultQueryLimit    = 50
	MaxQueryLimit        = 500

	DefaultCleanupTimeout = 5 * time.Minute
)

// Log messages - service events
const (
	LogMsgEventPayloadUnreadable = "Event payload is not a JSON object, skipping log"
	LogMsgFailedToLogEvent       = "Failed to log event to database"
	LogMsgEventLogged            = "Event logged to database"
)

// Log messages - cleanup job
const (
	LogMsgCleanupJobStarting  = "Starting event log cleanup job"
	LogMsgCleanupJobFailed    = "Event log cleanup failed"
	LogMsgCleanupJobCompleted = "Event log cleanup completed"
)
