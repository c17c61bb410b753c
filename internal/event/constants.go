package event

import "time"

// EventSchemaVersion is stamped on every engine event
const EventSchemaVersion = "1.0"

// Retry configuration
const (
	// RetryQueueBufferSize bounds events awaiting redelivery; overflow goes straight to dead-letter
	RetryQueueBufferSize = 1000

	// RetryMaxAttempts is the default number of redeliveries before dead-lettering
	RetryMaxAttempts = 5

	// RetryMaxDelay caps a single backoff step
	RetryMaxDelay = time.Minute
)

// DeadLetterFilePermissions is the file mode for the dead-letter file
const DeadLetterFilePermissions = 0644

// Metadata keys
const (
	MetadataKeyReason = "reason"
)

// Log messages
const (
	LogMsgEventPublishFailed    = "Event publish failed, queuing for retry"
	LogMsgRetryQueueFull        = "Retry queue full, event dropped to dead-letter"
	LogMsgDeadLetterWriteFailed = "Failed to write to dead letter"
	LogMsgEventRetryExhausted   = "Event retry exhausted, writing to dead-letter"
	LogMsgEventRetryFailed      = "Event retry failed, scheduling next attempt"
	LogMsgEventRetrySucceeded   = "Event retry succeeded"
	LogMsgEventDroppedShutdown  = "Event dropped during shutdown"
	LogMsgQueueDrainedShutdown  = "Drained retry queue during shutdown"
	LogMsgShutdownTimeout       = "Resilient publisher shutdown timed out"
	LogMsgEventDeadLettered     = "Event dead-lettered"
)

// Error messages
const (
	ErrMsgHandlerFailures = "%d handler(s) failed for event %s: %w"
	ErrMsgNilPayload      = "event payload is nil"
)

// RetryBackoff returns the delay before redelivery attempt n (1-based):
// base, 2*base, 4*base and so on, capped at RetryMaxDelay.
func RetryBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		return RetryMaxDelay
	}
	delay := base << (attempt - 1)
	if delay <= 0 || delay > RetryMaxDelay {
		return RetryMaxDelay
	}
	return delay
}
