package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
	MetricNameEventsDeadLettered = "events_dead_lettered_total"
	MetricNameEventLogPruned     = "event_log_pruned_total"
)

// Engine metric names
const (
	MetricNameXPAwarded           = "xp_awarded_total"
	MetricNameXPReversed          = "xp_reversed_total"
	MetricNameLevelUps            = "level_ups_total"
	MetricNameChallengesCompleted = "challenges_completed_total"
	MetricNameChallengesRevoked   = "challenges_revoked_total"
	MetricNameCatchesRateLimited  = "catches_rate_limited_total"
	MetricNameRulesSkipped        = "challenge_rules_skipped_total"
	MetricNameEvaluationFailures  = "evaluation_failures_total"
	MetricNameOperationDuration   = "engine_operation_duration_seconds"
	MetricNameReconcileDrift      = "reconcile_drift_xp_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
	HelpTextEventsDeadLettered = "Total number of events written to the dead-letter file"
	HelpTextEventLogPruned     = "Total number of event log rows removed by retention cleanup"
)

// Engine metric help text
const (
	HelpTextXPAwarded           = "Total XP awarded by reason"
	HelpTextXPReversed          = "Total XP reversed by deleted catches"
	HelpTextLevelUps            = "Total number of account level increases"
	HelpTextChallengesCompleted = "Total number of challenges completed"
	HelpTextChallengesRevoked   = "Total number of challenges revoked"
	HelpTextCatchesRateLimited  = "Total number of catches that earned no XP because of the rate limit"
	HelpTextRulesSkipped        = "Total number of challenge rules skipped during evaluation"
	HelpTextEvaluationFailures  = "Total number of engine passes aborted by an error"
	HelpTextOperationDuration   = "Engine operation latency in seconds"
	HelpTextReconcileDrift      = "Absolute XP drift corrected by reconciliation"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelType      = "type"
	LabelReason    = "reason"
	LabelSlug      = "slug"
	LabelOperation = "operation"
)

// LabelValueUnmatched is the path label for requests no route matched
const LabelValueUnmatched = "unmatched"

// Rule skip reasons
const (
	SkipReasonInactive = "inactive_definition"
	SkipReasonConflict = "version_conflict"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// OperationLatencyBuckets covers a single locked engine pass
var OperationLatencyBuckets = []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgUnexpectedPayload = "Event payload could not be decoded"
	LogMsgMetricsRecorded   = "Metrics recorded for event"
)
