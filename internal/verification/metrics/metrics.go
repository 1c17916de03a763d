package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for verification requests.
type Metrics struct {
	// Outcomes by source ("claim", "document") and outcome
	// ("authentic", "not_authentic", "invalid", "error").
	Outcomes *prometheus.CounterVec

	Duration *prometheus.HistogramVec

	// OCR latency per field ("id", "name").
	RecognitionDuration *prometheus.HistogramVec
}

// New creates and registers verification metrics.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idcheck_verifications_total",
			Help: "Verification outcomes by source and result",
		}, []string{"source", "outcome"}),

		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idcheck_verification_duration_seconds",
			Help:    "Duration of a verification including recognition",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"source"}),

		RecognitionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idcheck_recognition_duration_seconds",
			Help:    "Duration of text recognition for a document field",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"field"}),
	}
}

// IncrementOutcome records a verification outcome.
func (m *Metrics) IncrementOutcome(source, outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(source, outcome).Inc()
	}
}

// ObserveDuration records the total verification time.
func (m *Metrics) ObserveDuration(source string, d time.Duration) {
	if m != nil {
		m.Duration.WithLabelValues(source).Observe(d.Seconds())
	}
}

// ObserveRecognition records OCR time for one field.
func (m *Metrics) ObserveRecognition(field string, d time.Duration) {
	if m != nil {
		m.RecognitionDuration.WithLabelValues(field).Observe(d.Seconds())
	}
}
