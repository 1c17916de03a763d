package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"idcheck/internal/registry/models"
)

// Metrics exposes the shape of the loaded electoral roll.
type Metrics struct {
	Records      *prometheus.GaugeVec
	Duplicates   *prometheus.GaugeVec
	RejectedRows *prometheus.CounterVec
	LoadDuration *prometheus.HistogramVec
}

// New creates and registers registry metrics.
func New() *Metrics {
	return &Metrics{
		Records: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "idcheck_registry_records",
			Help: "Rows held by the in-memory electoral roll, duplicates included",
		}, []string{"source"}),
		Duplicates: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "idcheck_registry_duplicate_ids",
			Help: "Rows whose ID was already present when the roll was indexed",
		}, []string{"source"}),
		RejectedRows: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idcheck_registry_rejected_rows_total",
			Help: "Rows skipped during load because the ID could not be parsed",
		}, []string{"source"}),
		LoadDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idcheck_registry_load_duration_seconds",
			Help:    "Time taken to load the electoral roll",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"source"}),
	}
}

// ObserveLoad records the outcome of one load.
func (m *Metrics) ObserveLoad(stats models.LoadStats) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(stats.Source).Set(float64(stats.Records))
	m.Duplicates.WithLabelValues(stats.Source).Set(float64(stats.Duplicates))
	m.RejectedRows.WithLabelValues(stats.Source).Add(float64(stats.Rejected))
	m.LoadDuration.WithLabelValues(stats.Source).Observe(stats.Duration.Seconds())
}
