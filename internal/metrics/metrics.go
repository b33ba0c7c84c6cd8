package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Batch processing metrics
	BatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraudpipe_batches_total",
			Help: "Total number of batches processed",
		},
	)

	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudpipe_records_total",
			Help: "Total number of records processed, by outcome",
		},
		[]string{"outcome"},
	)

	// Dimension lookup metrics
	DimensionMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudpipe_dimension_misses_total",
			Help: "Total number of dimension lookup misses, by table",
		},
		[]string{"table"},
	)

	// Inference metrics
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fraudpipe_inference_duration_seconds",
			Help:    "Duration of scoring endpoint calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	InferenceErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraudpipe_inference_errors_total",
			Help: "Total number of failed scoring calls",
		},
	)

	// Sink metrics
	SinkErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraudpipe_sink_errors_total",
			Help: "Total number of failed sink writes",
		},
	)

	FraudLabels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudpipe_fraud_labels_total",
			Help: "Total number of persisted records, by fraud label",
		},
		[]string{"label"},
	)
)
