package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"memewall/internal/records"
)

// Observer receives instrumentation events from a run. It lets the metrics
// package record pipeline activity without this package importing it.
type Observer interface {
	ObserveStage(stage string, d time.Duration)
	ObserveDrop(reason records.DropReason)
	ObserveMediaFetch(downloaded bool, err error)
	ObservePurge(removed int)
	ObserveImageAnalysis(d time.Duration, err error)
	ObserveRun(stats Stats, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, time.Duration)        {}
func (nopObserver) ObserveDrop(records.DropReason)            {}
func (nopObserver) ObserveMediaFetch(bool, error)             {}
func (nopObserver) ObservePurge(int)                          {}
func (nopObserver) ObserveImageAnalysis(time.Duration, error) {}
func (nopObserver) ObserveRun(Stats, time.Duration, error)    {}

// Stats counts what a run did. Counts are for reporting only.
type Stats struct {
	Rows       int
	Normalized int
	Downloaded int
	Cached     int
	Purged     int
	NonImage   int
	Memes      int
	Undated    int

	Dropped     map[records.DropReason]int
	FacetValues map[string]int
}

// DroppedTotal sums Dropped.
func (s Stats) DroppedTotal() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows=%d normalized=%d dropped=%d downloaded=%d cached=%d purged=%d non_image=%d memes=%d",
		s.Rows, s.Normalized, s.DroppedTotal(), s.Downloaded, s.Cached, s.Purged, s.NonImage, s.Memes)

	if s.Undated > 0 {
		fmt.Fprintf(&b, " undated=%d", s.Undated)
	}

	if len(s.FacetValues) > 0 {
		keys := make([]string, 0, len(s.FacetValues))
		for k := range s.FacetValues {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%d", k, s.FacetValues[k])
		}
	}
	return b.String()
}
