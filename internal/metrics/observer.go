package metrics

import (
	"errors"
	"time"

	"memewall/internal/filesystem"
	"memewall/internal/pipeline"
	"memewall/internal/records"
)

const (
	statusSuccess   = "success"
	statusError     = "error"
	statusLocked    = "locked"
	fetchDownloaded = "downloaded"
	fetchCached     = "cached"
)

// pipelineObserver implements pipeline.Observer using the Prometheus
// metrics declared in this package.
type pipelineObserver struct{}

// NewPipelineObserver creates an observer that records pipeline activity
// into the Prometheus collectors declared in metrics.go.
func NewPipelineObserver() pipeline.Observer {
	return &pipelineObserver{}
}

func (o *pipelineObserver) ObserveStage(stage string, d time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (o *pipelineObserver) ObserveDrop(reason records.DropReason) {
	PipelineDroppedTotal.WithLabelValues(string(reason)).Inc()
}

func (o *pipelineObserver) ObserveMediaFetch(downloaded bool, err error) {
	switch {
	case err != nil:
		MediaFetchesTotal.WithLabelValues(statusError).Inc()
	case downloaded:
		MediaFetchesTotal.WithLabelValues(fetchDownloaded).Inc()
	default:
		MediaFetchesTotal.WithLabelValues(fetchCached).Inc()
	}
}

func (o *pipelineObserver) ObservePurge(removed int) {
	MediaPurgedTotal.Add(float64(removed))
}

func (o *pipelineObserver) ObserveImageAnalysis(d time.Duration, err error) {
	ImageAnalysisDuration.Observe(d.Seconds())
	if err != nil {
		ImageAnalysisTotal.WithLabelValues(statusError).Inc()
		return
	}
	ImageAnalysisTotal.WithLabelValues(statusSuccess).Inc()
}

// ObserveRun records the run outcome. Record and facet gauges only move on
// success so they always describe the last dataset produced.
func (o *pipelineObserver) ObserveRun(stats pipeline.Stats, d time.Duration, err error) {
	PipelineLastRunDuration.Set(d.Seconds())

	switch {
	case errors.Is(err, pipeline.ErrLocked):
		PipelineRunsTotal.WithLabelValues(statusLocked).Inc()
		return
	case err != nil:
		PipelineRunsTotal.WithLabelValues(statusError).Inc()
		return
	}

	PipelineRunsTotal.WithLabelValues(statusSuccess).Inc()
	PipelineLastSuccessTimestamp.SetToCurrentTime()

	PipelineRecords.WithLabelValues(StateRows).Set(float64(stats.Rows))
	PipelineRecords.WithLabelValues(StateNormalized).Set(float64(stats.Normalized))
	PipelineRecords.WithLabelValues(StateNonImage).Set(float64(stats.NonImage))
	PipelineRecords.WithLabelValues(StateMemes).Set(float64(stats.Memes))

	DatasetMemes.Set(float64(stats.Memes))
	for category, n := range stats.FacetValues {
		DatasetFacetValues.WithLabelValues(category).Set(float64(n))
	}
}

type filesystemObserver struct{}

// NewFilesystemObserver records stale handle retries into
// FilesystemRetriesTotal.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveRetry(operation, outcome string) {
	FilesystemRetriesTotal.WithLabelValues(operation, outcome).Inc()
}
