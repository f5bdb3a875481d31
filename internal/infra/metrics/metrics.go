package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SweepMetrics contains Prometheus metrics for lifecycle sweeps. A nil
// *SweepMetrics is valid and records nothing, so wiring metrics stays
// optional.
type SweepMetrics struct {
	itemsProcessed prometheus.Counter
	itemFailures   prometheus.Counter
	transitions    *prometheus.CounterVec
	removals       *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	sweepDuration  prometheus.Histogram
}

// NewSweepMetrics creates the sweep metric collectors and registers them with
// the default registry.
func NewSweepMetrics() *SweepMetrics {
	return &SweepMetrics{
		itemsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifecycle_items_processed_total",
			Help: "Total number of items evaluated by lifecycle sweeps",
		}),
		itemFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifecycle_item_failures_total",
			Help: "Total number of items whose evaluation or mutation failed",
		}),
		transitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifecycle_transitions_total",
				Help: "Total number of automatic moderation state transitions",
			},
			[]string{"target_state"},
		),
		removals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifecycle_removals_total",
				Help: "Total number of automatic content deletions",
			},
			[]string{"reason"},
		),
		notifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifecycle_notifications_sent_total",
				Help: "Total number of lifecycle notification mails sent",
			},
			[]string{"milestone"},
		),
		sweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifecycle_sweep_duration_seconds",
			Help:    "Duration of full lifecycle sweeps",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

func (m *SweepMetrics) ItemProcessed() {
	if m != nil {
		m.itemsProcessed.Inc()
	}
}

func (m *SweepMetrics) ItemFailed() {
	if m != nil {
		m.itemFailures.Inc()
	}
}

func (m *SweepMetrics) Transition(targetState string) {
	if m != nil {
		m.transitions.WithLabelValues(targetState).Inc()
	}
}

func (m *SweepMetrics) Removal(reason string) {
	if m != nil {
		m.removals.WithLabelValues(reason).Inc()
	}
}

func (m *SweepMetrics) NotificationSent(milestone string) {
	if m != nil {
		m.notifications.WithLabelValues(milestone).Inc()
	}
}

func (m *SweepMetrics) SweepFinished(d time.Duration) {
	if m != nil {
		m.sweepDuration.Observe(d.Seconds())
	}
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
