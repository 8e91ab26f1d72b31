package metrics

import (
	"sync"
	"time"

	"memewall/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats describes the dataset currently being served.
type Stats struct {
	Memes       int
	FacetValues map[string]int
	ModTime     time.Time
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. Calling it again is a no-op.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	DatasetMemes.Set(float64(stats.Memes))
	for category, n := range stats.FacetValues {
		DatasetFacetValues.WithLabelValues(category).Set(float64(n))
	}
	if !stats.ModTime.IsZero() {
		DatasetLastModified.Set(float64(stats.ModTime.Unix()))
	}

	logging.Debug("Metrics collected: memes=%d, categories=%d", stats.Memes, len(stats.FacetValues))
}
