package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgedit_transforms_total",
			Help: "Total number of transform invocations",
		},
		[]string{"status"},
	)

	TransformDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imgedit_transform_duration_seconds",
			Help:    "End to end duration of transform invocations in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	TransformStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgedit_transform_stage_duration_seconds",
			Help:    "Duration of individual transform stages in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)

	OutputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgedit_output_bytes",
			Help:    "Size of encoded output images in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"format"},
	)

	SourceLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgedit_source_loads_total",
			Help: "Total number of source loads by reference kind",
		},
		[]string{"kind", "status"},
	)

	SourceBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgedit_source_bytes",
			Help:    "Size of encoded source images in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"kind"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgedit_storage_operations_total",
			Help: "Total number of object storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgedit_storage_operation_duration_seconds",
			Help:    "Duration of object storage operations in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	StorageBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgedit_storage_bytes_total",
			Help: "Total bytes read from object storage",
		},
		[]string{"operation"},
	)

	BatchJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgedit_batch_jobs_total",
			Help: "Total number of batch entries processed",
		},
		[]string{"status"},
	)

	BatchActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imgedit_batch_active_jobs",
			Help: "Number of batch entries currently being transformed",
		},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "imgedit_app_info",
			Help: "Application information",
		},
		[]string{"version", "environment"},
	)
)

func RecordTransform(status string, durationSeconds float64) {
	TransformsTotal.WithLabelValues(status).Inc()
	TransformDuration.Observe(durationSeconds)
}

func RecordTransformStage(stage string, durationSeconds float64) {
	TransformStageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

func RecordOutputBytes(format string, size int64) {
	OutputBytes.WithLabelValues(format).Observe(float64(size))
}

func RecordSourceLoad(kind, status string, size int64) {
	SourceLoadsTotal.WithLabelValues(kind, status).Inc()
	if status == "success" && size > 0 {
		SourceBytes.WithLabelValues(kind).Observe(float64(size))
	}
}

func RecordBatchJob(status string) {
	BatchJobsTotal.WithLabelValues(status).Inc()
}

func SetAppInfo(version, environment string) {
	AppInfo.WithLabelValues(version, environment).Set(1)
}

// WriteTextfile dumps the default registry in the node_exporter textfile
// format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
