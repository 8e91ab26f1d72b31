package server

import (
	"encoding/json"
	"net/http"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"memewall/internal/export"
	"memewall/internal/facets"
	"memewall/internal/filesystem"
	"memewall/internal/logging"
	"memewall/internal/mediatypes"
	"memewall/internal/metrics"
	"memewall/internal/middleware"
	"memewall/internal/pipeline"
	"memewall/internal/records"
	"memewall/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configure a Server.
type Options struct {
	// DatasetPath is the dataset file written by a build.
	DatasetPath string
	// Static directories served under their URL prefixes, typically the
	// media and image variant directories.
	Static []StaticDir
	// MetricsEnabled mounts /metrics.
	MetricsEnabled bool
	Logging        middleware.LoggingConfig
}

// StaticDir serves the files of Dir under URLPrefix.
type StaticDir struct {
	URLPrefix string
	Dir       string
}

// Server serves a built dataset and its media for previewing.
type Server struct {
	opts    Options
	started time.Time
	router  *mux.Router

	mu      sync.RWMutex
	dataset *pipeline.Dataset
	modTime time.Time
}

// New loads the dataset at opts.DatasetPath and registers the routes.
func New(opts Options) (*Server, error) {
	s := &Server{opts: opts, started: time.Now()}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

// Router returns the route table, for logging.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the router wrapped in logging and compression middleware.
func (s *Server) Handler() http.Handler {
	logged := middleware.Logger(s.opts.Logging)(s.router)
	return middleware.Compression(middleware.DefaultCompressionConfig())(logged)
}

// Reload reads the dataset file again.
func (s *Server) Reload() error {
	info, err := filesystem.StatWithRetry(s.opts.DatasetPath, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	ds, err := export.ReadDataset(s.opts.DatasetPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.dataset = ds
	s.modTime = info.ModTime()
	s.mu.Unlock()

	logging.Info("Loaded dataset %s (%d memes)", s.opts.DatasetPath, len(ds.Memes))
	return nil
}

// reloadIfChanged picks up a dataset rewritten by a later build.
func (s *Server) reloadIfChanged() {
	info, err := filesystem.StatWithRetry(s.opts.DatasetPath, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Warn("Dataset %s unavailable, keeping loaded copy: %v", s.opts.DatasetPath, err)
		return
	}

	s.mu.RLock()
	unchanged := info.ModTime().Equal(s.modTime)
	s.mu.RUnlock()
	if unchanged {
		return
	}

	if err := s.Reload(); err != nil {
		logging.Warn("Failed to reload dataset, keeping loaded copy: %v", err)
	}
}

func (s *Server) current() (*pipeline.Dataset, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset, s.modTime
}

// GetStats implements metrics.StatsProvider. It reloads the dataset first
// when the file changed, so the metrics collector doubles as the reload tick.
func (s *Server) GetStats() metrics.Stats {
	s.reloadIfChanged()

	ds, modTime := s.current()
	stats := metrics.Stats{
		Memes:       len(ds.Memes),
		FacetValues: make(map[string]int, len(facets.Categories)),
		ModTime:     modTime,
	}
	for _, c := range facets.Categories {
		stats.FacetValues[string(c)] = len(ds.Get(c))
	}
	return stats
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics())

	r.HandleFunc("/healthz", s.handleHealth).Methods("GET", "HEAD")
	r.HandleFunc("/livez", s.handleLive).Methods("GET", "HEAD")
	r.HandleFunc("/version", s.handleVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dataset", s.handleDataset).Methods("GET")
	api.HandleFunc("/index", s.handleIndex).Methods("GET")
	api.HandleFunc("/facets", s.handleAllFacets).Methods("GET")
	api.HandleFunc("/facets/{category}", s.handleFacets).Methods("GET")
	api.HandleFunc("/memes", s.handleMemes).Methods("GET")

	if s.opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	for _, d := range s.opts.Static {
		prefix := strings.TrimRight(d.URLPrefix, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, staticFiles(d.Dir))).Methods("GET", "HEAD")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "not found", http.StatusNotFound)
	})
	return r
}

// staticFiles serves regular files from dir without directory listings or
// hidden files.
func staticFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if name == "" || strings.HasSuffix(name, "/") || strings.HasPrefix(path.Base(name), ".") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", mediatypes.GetMimeType(mediatypes.Ext(name)))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		fs.ServeHTTP(w, r)
	})
}

// HealthResponse contains the health check response
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	Uptime          string `json:"uptime"`
	Memes           int    `json:"memes"`
	DatasetModified string `json:"datasetModified"`
	GoVersion       string `json:"goVersion"`
	NumGoroutine    int    `json:"numGoroutine"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	ds, modTime := s.current()
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, HealthResponse{
		Status:          "healthy",
		Version:         startup.Version,
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		Memes:           len(ds.Memes),
		DatasetModified: modTime.UTC().Format(time.RFC3339),
		GoVersion:       runtime.Version(),
		NumGoroutine:    runtime.NumGoroutine(),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, "alive")
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, startup.GetBuildInfo())
}

func (s *Server) handleDataset(w http.ResponseWriter, _ *http.Request) {
	ds, _ := s.current()
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ds)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	ds, _ := s.current()
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, export.Index(ds.Memes))
}

func (s *Server) handleAllFacets(w http.ResponseWriter, _ *http.Request) {
	ds, _ := s.current()
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ds.Set)
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["category"]
	c, ok := facets.ParseFilter(name)
	if !ok {
		writeJSONError(w, "unknown facet category: "+name, http.StatusNotFound)
		return
	}

	ds, _ := s.current()
	values := ds.Get(c)
	if values == nil {
		values = []facets.Facet{}
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, values)
}

// handleMemes serves memes matching ?q= (substring search) and
// ?facet=&value= (any of the values), applied in that order.
func (s *Server) handleMemes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ds, _ := s.current()
	memes := facets.Search(ds.Memes, q.Get("q"))

	if name := q.Get("facet"); name != "" {
		c, ok := facets.ParseFilter(name)
		if !ok {
			writeJSONError(w, "unknown facet: "+name, http.StatusBadRequest)
			return
		}
		memes = facets.Filter(memes, c, q["value"])
	}
	if memes == nil {
		memes = []records.Meme{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, memes)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}
