package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"memewall/internal/facets"
	"memewall/internal/logging"
	"memewall/internal/media"
	"memewall/internal/mediatypes"
	"memewall/internal/records"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run holds the media directory lock.
var ErrLocked = errors.New("media directory is locked by another run")

// Stage names, in execution order.
const (
	StageFetchRows  = "fetch_rows"
	StageNormalize  = "normalize"
	StageSort       = "sort"
	StageFetchMedia = "fetch_media"
	StagePurge      = "purge"
	StageFilter     = "filter"
	StageAnalyze    = "analyze"
	StageFacets     = "facets"
)

// Stages lists every stage name in execution order.
var Stages = []string{
	StageFetchRows, StageNormalize, StageSort, StageFetchMedia,
	StagePurge, StageFilter, StageAnalyze, StageFacets,
}

// RowSource supplies the raw spreadsheet rows.
type RowSource interface {
	FetchRows(ctx context.Context) ([]records.Raw, error)
}

// MediaFetcher stores a record's media in dir and returns the local file
// name. Calling it again for a stored file must not download it again.
type MediaFetcher interface {
	Fetch(ctx context.Context, rec records.Normalized, dir string) (filename string, downloaded bool, err error)
}

// Purger deletes files in dir that none of recs reference.
type Purger interface {
	Purge(recs []records.Resolved, dir string) ([]string, error)
}

// ImageAnalyzer derives display metadata from a local image.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, path string) (media.Analysis, error)
}

// HierarchySource supplies the facet group hierarchies.
type HierarchySource interface {
	Hierarchies(ctx context.Context) (facets.Hierarchies, error)
}

// Dependencies are the external collaborators of a run.
type Dependencies struct {
	Rows        RowSource
	Media       MediaFetcher
	Purger      Purger
	Analyzer    ImageAnalyzer
	Hierarchies HierarchySource
}

func (d Dependencies) validate() error {
	switch {
	case d.Rows == nil:
		return errors.New("pipeline: no row source")
	case d.Media == nil:
		return errors.New("pipeline: no media fetcher")
	case d.Purger == nil:
		return errors.New("pipeline: no purger")
	case d.Analyzer == nil:
		return errors.New("pipeline: no image analyzer")
	case d.Hierarchies == nil:
		return errors.New("pipeline: no hierarchy source")
	}
	return nil
}

// Options configure a Pipeline.
type Options struct {
	// MediaDir holds the downloaded media files.
	MediaDir string
	// MediaURLPrefix is the public URL path under which MediaDir is served.
	MediaURLPrefix string
	// Verbosity selects how much progress the run reports. Per-record detail
	// is reported at LevelDebug, stage summaries at LevelInfo.
	Verbosity logging.LogLevel
	// Observer receives stage timings and counts. Optional.
	Observer Observer
	// SkipLock disables the media directory lock.
	SkipLock bool
}

// DefaultMediaURLPrefix is used when Options.MediaURLPrefix is empty.
const DefaultMediaURLPrefix = "/media"

// Dataset is the output of a successful run.
type Dataset struct {
	Memes []records.Meme `json:"memes"`
	facets.Set
}

// Pipeline runs the meme wall ETL. Nothing happens until Run is called.
type Pipeline struct {
	opts     Options
	deps     Dependencies
	observer Observer
}

// New creates a Pipeline.
func New(opts Options, deps Dependencies) *Pipeline {
	if opts.MediaURLPrefix == "" {
		opts.MediaURLPrefix = DefaultMediaURLPrefix
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Pipeline{opts: opts, deps: deps, observer: obs}
}

// LockPath returns the lock file guarding the media directory.
func (p *Pipeline) LockPath() string {
	return filepath.Clean(p.opts.MediaDir) + ".lock"
}

// Run executes every stage once. Any error aborts the run and no Dataset is
// returned.
func (p *Pipeline) Run(ctx context.Context) (*Dataset, error) {
	start := time.Now()
	stats := Stats{Dropped: make(map[records.DropReason]int)}

	ds, err := p.runLocked(ctx, &stats)

	elapsed := time.Since(start)
	p.observer.ObserveRun(stats, elapsed, err)
	if err != nil {
		return nil, err
	}

	p.infof("Pipeline complete in %v: %s", elapsed.Round(time.Millisecond), stats)
	return ds, nil
}

func (p *Pipeline) runLocked(ctx context.Context, stats *Stats) (*Dataset, error) {
	if err := p.deps.validate(); err != nil {
		return nil, err
	}
	if p.opts.MediaDir == "" {
		return nil, errors.New("pipeline: no media directory")
	}

	if !p.opts.SkipLock {
		unlock, err := p.lock()
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	return p.run(ctx, stats)
}

func (p *Pipeline) lock() (func(), error) {
	lockPath := p.LockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			logging.Warn("failed to release lock %s: %v", lockPath, err)
		}
	}, nil
}

func (p *Pipeline) run(ctx context.Context, stats *Stats) (*Dataset, error) {
	var (
		rows       []records.Raw
		normalized []records.Normalized
		resolved   []records.Resolved
		images     []records.Resolved
		memes      []records.Meme
		set        facets.Set
	)

	steps := []struct {
		name string
		fn   func() error
	}{
		{StageFetchRows, func() (err error) {
			rows, err = p.deps.Rows.FetchRows(ctx)
			if err != nil {
				return fmt.Errorf("fetch rows: %w", err)
			}
			stats.Rows = len(rows)
			return nil
		}},
		{StageNormalize, func() error {
			normalized = p.normalize(rows, stats)
			return nil
		}},
		{StageSort, func() error {
			records.SortByTimestampDesc(normalized)
			return nil
		}},
		{StageFetchMedia, func() (err error) {
			resolved, err = p.fetchMedia(ctx, normalized, stats)
			return err
		}},
		{StagePurge, func() error {
			removed, err := p.deps.Purger.Purge(resolved, p.opts.MediaDir)
			if err != nil {
				return fmt.Errorf("purge media: %w", err)
			}
			stats.Purged = len(removed)
			p.observer.ObservePurge(len(removed))
			return nil
		}},
		{StageFilter, func() error {
			images = p.filterImages(resolved, stats)
			return nil
		}},
		{StageAnalyze, func() (err error) {
			memes, err = p.analyze(ctx, images)
			return err
		}},
		{StageFacets, func() error {
			h, err := p.deps.Hierarchies.Hierarchies(ctx)
			if err != nil {
				return fmt.Errorf("load hierarchies: %w", err)
			}
			set = facets.Aggregate(memes, h)
			stats.FacetValues = make(map[string]int, len(facets.Categories))
			for _, c := range facets.Categories {
				stats.FacetValues[string(c)] = len(set.Get(c))
			}
			return nil
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		err := step.fn()
		p.observer.ObserveStage(step.name, time.Since(start))
		if err != nil {
			return nil, err
		}
		p.debugf("Stage %s finished in %v", step.name, time.Since(start))
	}

	stats.Memes = len(memes)
	return &Dataset{Memes: memes, Set: set}, nil
}

func (p *Pipeline) normalize(rows []records.Raw, stats *Stats) []records.Normalized {
	out := make([]records.Normalized, 0, len(rows))
	for i, raw := range rows {
		n, reason := records.Normalize(raw)
		if reason != records.DropNone {
			stats.Dropped[reason]++
			p.observer.ObserveDrop(reason)
			p.debugf("Dropping row %d (%q): %s", i+1, raw.Title, reason)
			continue
		}
		if n.Undated() {
			stats.Undated++
			logging.Warn("Row %d (%q) has unrecognized timestamp %q; sorting it last", i+1, raw.Title, raw.Timestamp)
		}
		out = append(out, n)
	}
	stats.Normalized = len(out)
	p.infof("Normalized %d of %d rows", len(out), len(rows))
	return out
}

func (p *Pipeline) fetchMedia(ctx context.Context, recs []records.Normalized, stats *Stats) ([]records.Resolved, error) {
	out := make([]records.Resolved, 0, len(recs))
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name, downloaded, err := p.deps.Media.Fetch(ctx, rec, p.opts.MediaDir)
		p.observer.ObserveMediaFetch(downloaded, err)
		if err != nil {
			return nil, fmt.Errorf("fetch media for %q (%s): %w", rec.Title, rec.DriveID, err)
		}

		if downloaded {
			stats.Downloaded++
		} else {
			stats.Cached++
		}
		p.debugf("Media %s -> %s (downloaded=%t)", rec.DriveID, name, downloaded)

		out = append(out, records.Resolved{
			Normalized: rec,
			Filename:   name,
			MediaPath:  path.Join(p.opts.MediaURLPrefix, name),
		})
	}
	p.infof("Resolved media for %d records (%d downloaded, %d cached)", len(out), stats.Downloaded, stats.Cached)
	return out, nil
}

func (p *Pipeline) filterImages(recs []records.Resolved, stats *Stats) []records.Resolved {
	out := make([]records.Resolved, 0, len(recs))
	for _, r := range recs {
		if !mediatypes.IsApprovedImage(r.Filename) {
			stats.NonImage++
			p.debugf("Skipping non-image media %s", r.Filename)
			continue
		}
		out = append(out, r)
	}
	return out
}

func (p *Pipeline) analyze(ctx context.Context, recs []records.Resolved) ([]records.Meme, error) {
	out := make([]records.Meme, 0, len(recs))
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		a, err := p.deps.Analyzer.Analyze(ctx, filepath.Join(p.opts.MediaDir, r.Filename))
		p.observer.ObserveImageAnalysis(time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", r.Filename, err)
		}

		variants := a.Variants
		if variants == nil {
			variants = map[string]string{}
		}
		out = append(out, records.Meme{
			Resolved:    r,
			AspectRatio: records.AspectRatio(a.AspectRatio),
			Variants:    variants,
			Thumbnail:   a.Thumbnail,
		})
	}
	p.infof("Analyzed %d images", len(out))
	return out, nil
}

func (p *Pipeline) infof(format string, args ...interface{}) {
	if p.opts.Verbosity <= logging.LevelInfo {
		logging.Info(format, args...)
	}
}

func (p *Pipeline) debugf(format string, args ...interface{}) {
	if p.opts.Verbosity <= logging.LevelDebug {
		logging.Debug(format, args...)
	}
}
