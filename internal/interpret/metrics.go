package interpret

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	outcomeParsed   = "parsed"
	outcomeUnparsed = "unparsed"
	outcomeFailed   = "failed"
)

// Metrics counts requester activity. A nil *Metrics records nothing.
type Metrics struct {
	readings *prometheus.CounterVec
	attempts *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the requester metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		readings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tarot_interpretations_total",
				Help: "Interpretations produced, by outcome.",
			},
			[]string{"outcome"},
		),
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tarot_generator_attempts_total",
				Help: "Calls to the text generator, by status.",
			},
			[]string{"status"},
		),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tarot_interpretation_duration_seconds",
			Help:    "Time to produce an interpretation, retries included.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeOutcome(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) observeAttempt(status string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(status).Inc()
}
