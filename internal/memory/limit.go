package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"memewall/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go heap.
// The rest is left to libvips, which allocates outside the Go heap.
const DefaultMemoryRatio = 0.75

// Sources reported in Result.Source.
const (
	SourceGoMemLimit  = "GOMEMLIMIT"
	SourceMemoryLimit = "MEMORY_LIMIT"
	SourceNone        = "none"
)

// Result describes what ConfigureFromEnv did.
type Result struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureFromEnv sets the Go soft memory limit from the environment. Call
// it before the first image is decoded.
//
//   - GOMEMLIMIT, when set, is left alone and reported.
//   - MEMORY_LIMIT is the container limit in bytes (Kubernetes Downward API).
//   - MEMORY_RATIO is the share of MEMORY_LIMIT for the heap, in (0, 1].
func ConfigureFromEnv() Result {
	return configure(os.LookupEnv, debug.SetMemoryLimit)
}

func configure(lookup func(string) (string, bool), setLimit func(int64) int64) Result {
	if v, ok := lookup("GOMEMLIMIT"); ok && v != "" {
		res := Result{Source: SourceGoMemLimit}
		if limit := setLimit(-1); limit > 0 && limit < math.MaxInt64 {
			res.Configured = true
			res.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return res
	}

	raw, ok := lookup("MEMORY_LIMIT")
	if !ok || raw == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving the Go memory limit unset")
		return Result{Source: SourceNone}
	}

	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return Result{Source: SourceNone}
	}

	ratio := parseRatio(lookup)
	goLimit := int64(float64(limit) * ratio)
	setLimit(goLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		formatBytes(goLimit), ratio*100, formatBytes(limit))

	return Result{
		Configured:     true,
		Source:         SourceMemoryLimit,
		ContainerLimit: limit,
		GoMemLimit:     goLimit,
		Ratio:          ratio,
	}
}

func parseRatio(lookup func(string) (string, bool)) float64 {
	raw, ok := lookup("MEMORY_RATIO")
	if !ok || raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q must be in (0, 1], using %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
