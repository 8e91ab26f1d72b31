package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memewall_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memewall_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "memewall_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Pipeline metrics
var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memewall_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"status"}, // "success", "error", "locked"
	)

	PipelineLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "memewall_pipeline_last_run_duration_seconds",
			Help: "Duration of the last pipeline run in seconds",
		},
	)

	PipelineLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "memewall_pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last successful pipeline run",
		},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memewall_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"stage"},
	)

	PipelineRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memewall_pipeline_records",
			Help: "Number of records at each point of the last successful run",
		},
		[]string{"state"}, // "rows", "normalized", "non_image", "memes"
	)

	PipelineDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memewall_pipeline_dropped_rows_total",
			Help: "Total number of spreadsheet rows dropped during normalization",
		},
		[]string{"reason"},
	)
)

// Media metrics
var (
	MediaFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memewall_media_fetches_total",
			Help: "Total number of media fetches by result",
		},
		[]string{"result"}, // "downloaded", "cached", "error"
	)

	MediaPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "memewall_media_purged_files_total",
			Help: "Total number of unreferenced media files deleted",
		},
	)

	FilesystemRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memewall_filesystem_stale_retries_total",
			Help: "Filesystem operations that hit a stale NFS handle, by outcome",
		},
		[]string{"operation", "outcome"},
	)

	ImageAnalysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memewall_image_analysis_total",
			Help: "Total number of image analyses by status",
		},
		[]string{"status"},
	)

	ImageAnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memewall_image_analysis_duration_seconds",
			Help:    "Image analysis duration in seconds, including variant rendering",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Dataset metrics
var (
	DatasetMemes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "memewall_dataset_memes",
			Help: "Number of memes in the current dataset",
		},
	)

	DatasetFacetValues = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memewall_dataset_facet_values",
			Help: "Number of distinct values per facet category in the current dataset",
		},
		[]string{"category"},
	)

	DatasetLastModified = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "memewall_dataset_last_modified_timestamp",
			Help: "Unix timestamp of the dataset file being served",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memewall_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
