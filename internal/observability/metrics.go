// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Provider metrics
	ProviderRequests       *prometheus.CounterVec
	ProviderErrors         *prometheus.CounterVec
	ProviderCacheHits      *prometheus.CounterVec
	ProviderRequestLatency *prometheus.HistogramVec
	RateLimiterWaits       *prometheus.CounterVec

	// Scanner metrics
	ScansTotal         *prometheus.CounterVec
	ScanErrors         *prometheus.CounterVec
	MentionsFound      *prometheus.CounterVec
	SourcesDeactivated prometheus.Counter

	// Analysis metrics
	RiskAssessments   prometheus.Counter
	RiskCheckFailures *prometheus.CounterVec
	ScoresComputed    *prometheus.CounterVec

	// Monitor metrics
	TrackedTokens    prometheus.Gauge
	RefreshDuration  prometheus.Histogram
	RefreshFailures  prometheus.Counter
	CandidatesGated  *prometheus.CounterVec
	StaleRefreshes   prometheus.Counter

	// Alert and delivery metrics
	AlertsFired         *prometheus.CounterVec
	AlertsSuppressed    *prometheus.CounterVec
	BroadcastDeliveries *prometheus.CounterVec
	BroadcastDrops      *prometheus.CounterVec
	SubscriberCount     *prometheus.GaugeVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
	UptimeSeconds         prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_radar"
	}

	return &Metrics{
		// Provider metrics
		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total number of upstream requests by provider",
		}, []string{"provider"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Total number of upstream request failures by provider and class",
		}, []string{"provider", "class"}),
		ProviderCacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "cache_hits_total",
			Help:      "Total number of responses served from the TTL cache",
		}, []string{"provider"}),
		ProviderRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Upstream request latency by provider",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		RateLimiterWaits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "rate_limiter_waits_total",
			Help:      "Total number of calls that blocked on the rate limiter",
		}, []string{"provider"}),

		// Scanner metrics
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "scans_total",
			Help:      "Total number of source scans by source type",
		}, []string{"source_type"}),
		ScanErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "scan_errors_total",
			Help:      "Total number of failed source scans by source type",
		}, []string{"source_type"}),
		MentionsFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "mentions_found_total",
			Help:      "Total number of filtered mentions by source type",
		}, []string{"source_type"}),
		SourcesDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "sources_deactivated_total",
			Help:      "Total number of sources auto-deactivated after repeated failures",
		}),

		// Analysis metrics
		RiskAssessments: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "risk_assessments_total",
			Help:      "Total number of risk assessments computed",
		}),
		RiskCheckFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "risk_check_failures_total",
			Help:      "Total number of individual risk check failures by check",
		}, []string{"check"}),
		ScoresComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "scores_computed_total",
			Help:      "Total number of composite scores by verdict",
		}, []string{"verdict"}),

		// Monitor metrics
		TrackedTokens: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "tracked_tokens",
			Help:      "Current number of tracked tokens",
		}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a full refresh tick",
			Buckets:   prometheus.DefBuckets,
		}),
		RefreshFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "refresh_failures_total",
			Help:      "Total number of per-token refresh failures",
		}),
		CandidatesGated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "candidates_gated_total",
			Help:      "Validation gate outcomes for candidate tokens",
		}, []string{"outcome"}),
		StaleRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "stale_refreshes_total",
			Help:      "Refresh ticks that retained stale state after total provider failure",
		}),

		// Alert and delivery metrics
		AlertsFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "fired_total",
			Help:      "Total number of alerts fired by kind and priority",
		}, []string{"kind", "priority"}),
		AlertsSuppressed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "suppressed_total",
			Help:      "Total number of alerts suppressed by cooldown by kind",
		}, []string{"kind"}),
		BroadcastDeliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "deliveries_total",
			Help:      "Total number of events delivered by topic",
		}, []string{"topic"}),
		BroadcastDrops: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "drops_total",
			Help:      "Total number of subscribers dropped after delivery failure by topic",
		}, []string{"topic"}),
		SubscriberCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "subscribers",
			Help:      "Current number of subscribers by topic",
		}, []string{"topic"}),

		// Health metrics
		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of the last successful refresh tick",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Process uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordProviderRequest records one upstream request and its latency.
func RecordProviderRequest(provider string, seconds float64, err error, class string) {
	DefaultMetrics.ProviderRequests.WithLabelValues(provider).Inc()
	DefaultMetrics.ProviderRequestLatency.WithLabelValues(provider).Observe(seconds)
	if err != nil {
		DefaultMetrics.ProviderErrors.WithLabelValues(provider, class).Inc()
	}
}

// RecordCacheHit records a response served from the TTL cache.
func RecordCacheHit(provider string) {
	DefaultMetrics.ProviderCacheHits.WithLabelValues(provider).Inc()
}

// RecordRateLimiterWait records a call that blocked on the rate limiter.
func RecordRateLimiterWait(provider string) {
	DefaultMetrics.RateLimiterWaits.WithLabelValues(provider).Inc()
}

// RecordScan records a source scan outcome.
func RecordScan(sourceType string, mentions int, err error) {
	DefaultMetrics.ScansTotal.WithLabelValues(sourceType).Inc()
	if err != nil {
		DefaultMetrics.ScanErrors.WithLabelValues(sourceType).Inc()
		return
	}
	DefaultMetrics.MentionsFound.WithLabelValues(sourceType).Add(float64(mentions))
}

// RecordSourceDeactivated increments the auto-deactivation counter.
func RecordSourceDeactivated() {
	DefaultMetrics.SourcesDeactivated.Inc()
}

// RecordRiskAssessment records one assessment and any failed checks.
func RecordRiskAssessment(failedChecks []string) {
	DefaultMetrics.RiskAssessments.Inc()
	for _, check := range failedChecks {
		DefaultMetrics.RiskCheckFailures.WithLabelValues(check).Inc()
	}
}

// RecordScore increments the score counter for a verdict.
func RecordScore(verdict string) {
	DefaultMetrics.ScoresComputed.WithLabelValues(verdict).Inc()
}

// SetTrackedTokens updates the tracked token gauge.
func SetTrackedTokens(n int) {
	DefaultMetrics.TrackedTokens.Set(float64(n))
}

// RecordRefresh records the duration of a full refresh tick.
func RecordRefresh(seconds float64) {
	DefaultMetrics.RefreshDuration.Observe(seconds)
	DefaultMetrics.LastSuccessfulRefresh.SetToCurrentTime()
}

// RecordRefreshFailure records one per-token refresh failure.
func RecordRefreshFailure() {
	DefaultMetrics.RefreshFailures.Inc()
}

// RecordCandidateGated records a validation gate outcome.
func RecordCandidateGated(outcome string) {
	DefaultMetrics.CandidatesGated.WithLabelValues(outcome).Inc()
}

// RecordStaleRefresh records a tick that kept stale state.
func RecordStaleRefresh() {
	DefaultMetrics.StaleRefreshes.Inc()
}

// RecordAlert records a fired alert.
func RecordAlert(kind, priority string) {
	DefaultMetrics.AlertsFired.WithLabelValues(kind, priority).Inc()
}

// RecordAlertSuppressed records an alert suppressed by cooldown.
func RecordAlertSuppressed(kind string) {
	DefaultMetrics.AlertsSuppressed.WithLabelValues(kind).Inc()
}

// RecordBroadcast records an event delivery on a topic.
func RecordBroadcast(topic string) {
	DefaultMetrics.BroadcastDeliveries.WithLabelValues(topic).Inc()
}

// RecordBroadcastDrop records a subscriber removed after delivery failure.
func RecordBroadcastDrop(topic string) {
	DefaultMetrics.BroadcastDrops.WithLabelValues(topic).Inc()
}

// SetSubscribers records the current subscriber count on a topic.
func SetSubscribers(topic string, n int) {
	DefaultMetrics.SubscriberCount.WithLabelValues(topic).Set(float64(n))
}

// RecordUptime advances the process uptime counter.
func RecordUptime(seconds float64) {
	DefaultMetrics.UptimeSeconds.Add(seconds)
}
