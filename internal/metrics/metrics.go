package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)

	EventsDeadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsDeadLettered,
			Help: HelpTextEventsDeadLettered,
		},
		[]string{LabelType},
	)

	EventLogPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameEventLogPruned,
			Help: HelpTextEventLogPruned,
		},
	)
)

// Engine Metrics fed by the event collector
var (
	XPAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameXPAwarded,
			Help: HelpTextXPAwarded,
		},
		[]string{LabelReason},
	)

	XPReversed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameXPReversed,
			Help: HelpTextXPReversed,
		},
	)

	LevelUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameLevelUps,
			Help: HelpTextLevelUps,
		},
	)

	ChallengesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameChallengesCompleted,
			Help: HelpTextChallengesCompleted,
		},
		[]string{LabelSlug},
	)

	ChallengesRevoked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameChallengesRevoked,
			Help: HelpTextChallengesRevoked,
		},
		[]string{LabelSlug},
	)
)

// Engine Metrics recorded inline by the service
var (
	CatchesRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCatchesRateLimited,
			Help: HelpTextCatchesRateLimited,
		},
	)

	RulesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRulesSkipped,
			Help: HelpTextRulesSkipped,
		},
		[]string{LabelReason},
	)

	EvaluationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEvaluationFailures,
			Help: HelpTextEvaluationFailures,
		},
		[]string{LabelOperation},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameOperationDuration,
			Help:    HelpTextOperationDuration,
			Buckets: OperationLatencyBuckets,
		},
		[]string{LabelOperation},
	)

	ReconcileDrift = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameReconcileDrift,
			Help: HelpTextReconcileDrift,
		},
	)
)
