package metrics

import (
	"memewall/internal/facets"
	"memewall/internal/filesystem"
	"memewall/internal/pipeline"
	"memewall/internal/records"
)

// Record states reported by PipelineRecords.
const (
	StateRows       = "rows"
	StateNormalized = "normalized"
	StateNonImage   = "non_image"
	StateMemes      = "memes"
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, s := range []string{statusSuccess, statusError, statusLocked} {
		PipelineRunsTotal.WithLabelValues(s)
	}

	for _, stage := range pipeline.Stages {
		PipelineStageDuration.WithLabelValues(stage)
	}

	for _, s := range []string{StateRows, StateNormalized, StateNonImage, StateMemes} {
		PipelineRecords.WithLabelValues(s)
	}

	for _, r := range []records.DropReason{records.DropNoTimestamp, records.DropNoMediaID} {
		PipelineDroppedTotal.WithLabelValues(string(r))
	}

	for _, r := range []string{fetchDownloaded, fetchCached, statusError} {
		MediaFetchesTotal.WithLabelValues(r)
	}

	for _, op := range []string{"stat", "readdir"} {
		for _, outcome := range []string{filesystem.OutcomeRecovered, filesystem.OutcomeFailed} {
			FilesystemRetriesTotal.WithLabelValues(op, outcome)
		}
	}

	ImageAnalysisTotal.WithLabelValues(statusSuccess)
	ImageAnalysisTotal.WithLabelValues(statusError)

	for _, c := range facets.Categories {
		DatasetFacetValues.WithLabelValues(string(c))
	}
}
