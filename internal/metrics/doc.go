// Package metrics provides Prometheus instrumentation for memewall.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "memewall_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
// Recorded by the preview server middleware:
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Pipeline Metrics
//
// Recorded through the observer returned by [NewPipelineObserver]:
//   - PipelineRunsTotal: Counter of runs by status (success/error/locked)
//   - PipelineLastRunDuration: Gauge of the last run duration
//   - PipelineLastSuccessTimestamp: Gauge of the last successful run time
//   - PipelineStageDuration: Histogram of stage duration by stage
//   - PipelineRecords: Gauge of records by state for the last successful run
//   - PipelineDroppedTotal: Counter of dropped rows by reason
//
// ## Media Metrics
//
//   - MediaFetchesTotal: Counter of fetches by result (downloaded/cached/error)
//   - MediaPurgedTotal: Counter of deleted unreferenced files
//   - ImageAnalysisTotal, ImageAnalysisDuration: per-image analysis
//
// ## Dataset Metrics
//
// Set after a build, and refreshed by [Collector] while serving:
//   - DatasetMemes: Gauge of memes in the dataset
//   - DatasetFacetValues: Gauge of distinct values per facet category
//   - DatasetLastModified: Gauge of the served dataset file's mtime
//
// # Exporting
//
// The preview server mounts promhttp.Handler() on /metrics. A batch build has
// no scrape endpoint, so it writes a node_exporter textfile instead:
//
//	if err := metrics.WriteTextfile("/var/lib/node_exporter/memewall.prom"); err != nil {
//		logging.Warn("%v", err)
//	}
//
// # Prometheus Queries
//
// Failed builds in the last day:
//
//	increase(memewall_pipeline_runs_total{status="error"}[1d])
//
// Share of media served from the local cache:
//
//	rate(memewall_media_fetches_total{result="cached"}[1d]) /
//	rate(memewall_media_fetches_total[1d])
//
// Slowest stage:
//
//	topk(1, rate(memewall_pipeline_stage_duration_seconds_sum[1d]))
package metrics
