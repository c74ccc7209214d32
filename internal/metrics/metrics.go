package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_index_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_index_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"outcome"}, // "commit" or "rollback"
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_index_db_rows_affected",
			Help:    "Rows affected by write statements",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
		[]string{"operation"},
	)
)

// Reconciler metrics
var (
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_reconcile_runs_total",
			Help: "Total number of reconciliation runs",
		},
		[]string{"mode", "status"}, // mode: "commit" or "dry_run"
	)

	ReconcileLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_reconcile_last_run_timestamp",
			Help: "Unix timestamp of the last completed reconciliation run",
		},
	)

	ReconcileLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_reconcile_last_run_duration_seconds",
			Help: "Duration of the last reconciliation run in seconds",
		},
	)

	ReconcileDirectoryOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_reconcile_directory_ops_total",
			Help: "Directory records written or deleted",
		},
		[]string{"op"}, // "add", "remove", "refresh"
	)

	ReconcilePhotoOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_reconcile_photo_ops_total",
			Help: "Photo records written or deleted",
		},
		[]string{"op"}, // "add", "reindex", "remove"
	)

	ReconcileSkippedFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_index_reconcile_skipped_files_total",
			Help: "Files skipped because metadata extraction failed",
		},
	)

	ReconcileErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_index_reconcile_errors_total",
			Help: "Total number of failed reconciliation runs",
		},
	)

	ReconcileWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_reconcile_extraction_workers",
			Help: "Number of parallel metadata extraction workers",
		},
	)
)

// Metadata extraction metrics
var (
	ExtractDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_index_extract_duration_seconds",
			Help:    "Metadata extraction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"source"}, // "exif" or "decode"
	)

	ExtractTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_extract_total",
			Help: "Metadata extractions by dimension source and status",
		},
		[]string{"source", "status"},
	)

	ThumbnailLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_thumbnail_lookups_total",
			Help: "Thumbnail URL resolutions by result",
		},
		[]string{"result"}, // "found" or "default"
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_memory_extraction_paused",
			Help: "1 while metadata extraction is paused for memory",
		},
	)

	MemoryPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_index_memory_pauses_total",
			Help: "Times extraction was paused because memory was critical",
		},
	)
)

// Library metrics
var (
	LibraryDirectoriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_library_directories",
			Help: "Number of directory records in the index",
		},
	)

	LibraryPhotosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_library_photos",
			Help: "Number of photo records in the index",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_index_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_filesystem_operation_errors_total",
			Help: "Filesystem operation errors",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_filesystem_retry_attempts_total",
			Help: "NFS retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_filesystem_retry_success_total",
			Help: "Operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_index_filesystem_retry_duration_seconds",
			Help:    "Total time spent in retried filesystem operations",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_index_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// WriteTextfile writes every registered metric to path in the Prometheus text
// format, for pickup by the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
