package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emmproc_records_processed_total",
			Help: "Total number of query records evaluated and written.",
		},
		[]string{"mode"},
	)

	recordErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emmproc_record_errors_total",
			Help: "Total number of query records rejected, by error kind.",
		},
		[]string{"kind"},
	)

	rangeWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emmproc_range_warnings_total",
			Help: "Total number of soft validation warnings, by field.",
		},
		[]string{"field"},
	)

	modelSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emmproc_model_selections_total",
			Help: "Total number of model selections, by whether coefficients were copied or reused.",
		},
		[]string{"result"},
	)

	evaluationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "emmproc_evaluation_duration_seconds",
			Help:    "Time spent evaluating one record, including gradients.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	modelEpochs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "emmproc_model_epochs",
			Help: "Number of model epochs loaded, including the trailing model.",
		},
	)
)

func init() {
	prometheus.MustRegister(recordsProcessedTotal)
	prometheus.MustRegister(recordErrorsTotal)
	prometheus.MustRegister(rangeWarningsTotal)
	prometheus.MustRegister(modelSelectionsTotal)
	prometheus.MustRegister(evaluationDurationSeconds)
	prometheus.MustRegister(modelEpochs)
}

// RecordProcessed counts one successfully written record for mode
// ("batch" or "single").
func RecordProcessed(mode string) {
	recordsProcessedTotal.WithLabelValues(mode).Inc()
}

// RecordError counts one rejected record. kind is a short error label.
func RecordError(kind string) {
	recordErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordRangeWarning counts one soft out-of-range warning for field.
func RecordRangeWarning(field string) {
	rangeWarningsTotal.WithLabelValues(field).Inc()
}

// RecordModelSelection counts one selection; copied is false when the
// previously selected coefficients were reused.
func RecordModelSelection(copied bool) {
	result := "reused"
	if copied {
		result = "copied"
	}
	modelSelectionsTotal.WithLabelValues(result).Inc()
}

// ObserveEvaluation records how long one record took to evaluate.
func ObserveEvaluation(d time.Duration) {
	evaluationDurationSeconds.Observe(d.Seconds())
}

// SetModelEpochs sets the loaded epoch count.
func SetModelEpochs(n int) {
	modelEpochs.Set(float64(n))
}

// WriteTextfile writes all registered metrics to path in the Prometheus
// text format, for collection by node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
