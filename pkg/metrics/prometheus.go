package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsIngested      *prometheus.CounterVec
	countriesAnalyzed *prometheus.GaugeVec
	anomalies         *prometheus.GaugeVec
	qualityScore      *prometheus.GaugeVec
	errorsTotal       *prometheus.CounterVec
	latency           *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		rowsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econpulse_rows_ingested_total",
				Help: "Rows ingested from the source, per dataset",
			},
			[]string{"dataset"},
		),
		countriesAnalyzed: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "econpulse_countries_analyzed",
				Help: "Countries covered by the last analysis run, per analyzer",
			},
			[]string{"analyzer"},
		),
		anomalies: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "econpulse_anomaly_rows",
				Help: "Flagged anomaly rows in the last run, per country",
			},
			[]string{"country"},
		),
		qualityScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "econpulse_quality_score",
				Help: "Overall data quality score from the last run, per country",
			},
			[]string{"country"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "econpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRowsIngested records rows persisted from a source dataset.
func (r *Recorder) RecordRowsIngested(dataset string, n int) {
	r.rowsIngested.WithLabelValues(dataset).Add(float64(n))
}

// RecordCountriesAnalyzed records analyzer coverage for the last run.
func (r *Recorder) RecordCountriesAnalyzed(analyzer string, n int) {
	r.countriesAnalyzed.WithLabelValues(analyzer).Set(float64(n))
}

// RecordAnomalies records the flagged row count for a country.
func (r *Recorder) RecordAnomalies(country string, n int) {
	r.anomalies.WithLabelValues(country).Set(float64(n))
}

// RecordQualityScore records the overall quality score for a country.
func (r *Recorder) RecordQualityScore(country string, score float64) {
	r.qualityScore.WithLabelValues(country).Set(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
