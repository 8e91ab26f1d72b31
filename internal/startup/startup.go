package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"memewall/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Announce prints the banner, system information and the resolved
// configuration. configFile is the file LoadConfig read, if any.
func Announce(cfg *Config, configFile string) {
	printBanner()
	logSystemInfo()
	LogConfig(cfg, configFile)
}

// LogConfig logs the resolved configuration.
func LogConfig(cfg *Config, configFile string) {
	section("CONFIGURATION")

	if configFile == "" {
		configFile = "(none, defaults and environment)"
	}
	logging.Info("  Config file:        %s", configFile)
	logging.Info("  Sheet:              %s (tab %s)", orUnset(cfg.Sheet.ID), orUnset(cfg.Sheet.TabID))
	logging.Info("  Meme types doc:     %s", orUnset(cfg.Glossary.MemeTypesDoc))
	logging.Info("  Template types doc: %s", orUnset(cfg.Glossary.TemplateTypesDoc))
	logging.Info("  Media dir:          %s (served at %s)", cfg.Media.Dir, cfg.Media.URLPrefix)
	logging.Info("  Image renderer:     %s", cfg.Images.Renderer)
	logging.Info("  Image formats:      %s", strings.Join(cfg.Images.Formats, ", "))
	logging.Info("  Image widths:       %v", cfg.Images.Widths)
	logging.Info("  Image dir:          %s (served at %s)", cfg.Images.Dir, cfg.Images.URLPrefix)
	logging.Info("  Legacy thumbnail:   %v", cfg.Images.LegacyThumbnail)
	logging.Info("  Output dir:         %s", cfg.Output.Dir)
	logging.Info("  Metrics textfile:   %s", orUnset(cfg.Output.MetricsTextfile))
	logging.Info("  HTTP timeout:       %v", cfg.HTTPTimeout())
	logging.Info("  Log level:          %s", logging.GetLevel())
	logging.Info("")
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

// PrepareDirectories creates the directories a build writes to and checks
// they are writable.
func PrepareDirectories(cfg *Config) error {
	section("DIRECTORY SETUP")

	dirs := []struct {
		name string
		path string
	}{
		{"media", cfg.Media.Dir},
		{"image", cfg.Images.Dir},
		{"output", cfg.Output.Dir},
	}

	for _, d := range dirs {
		if d.path == "" {
			continue
		}
		if err := ensureDirectory(d.path, d.name); err != nil {
			return fmt.Errorf("%s directory error: %w", d.name, err)
		}
		logging.Debug("  Testing %s directory write access...", d.name)
		if err := testWriteAccess(d.path); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", d.name, err)
		}
		logging.Info("  [OK] %s directory is writable: %s", d.name, d.path)
	}
	logging.Info("")
	return nil
}

// LogRendererInit logs which variant renderer was selected.
func LogRendererInit(name string, vipsAvailable bool) {
	section("IMAGE RENDERER")
	logging.Info("  Renderer: %s", name)
	if !vipsAvailable {
		logging.Info("  libvips unavailable; webp variants are disabled")
	}
	logging.Info("")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			pathTemplate, err = route.GetPathRegexp()
			if err != nil {
				return err
			}
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Prefix routes (media file servers) have no methods.
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level.
func LogHTTPRoutes(router *mux.Router) {
	section("HTTP SERVER SETUP")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	logging.Debug("  Registered routes (%d total):", len(routes))

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		prefix := getRouteGroup(route.Path)
		groups[prefix] = append(groups[prefix], route)
	}

	groupKeys := make([]string, 0, len(groups))
	for k := range groups {
		groupKeys = append(groupKeys, k)
	}
	sort.Strings(groupKeys)

	for _, group := range groupKeys {
		label := group
		if label == "" {
			label = "root"
		}
		logging.Debug("  [%s]", label)
		for _, route := range groups[group] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if parts[0] == "api" && len(parts) > 1 {
		return "api/" + parts[1]
	}
	return parts[0]
}

// ServerInfo holds what the server start log reports.
type ServerInfo struct {
	Port            string
	MetricsEnabled  bool
	Memes           int
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(info ServerInfo) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", info.StartupDuration)
	logging.Info("  Memes loaded:    %d", info.Memes)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://localhost:%s", info.Port)
	logging.Info("    Dataset:       http://localhost:%s/api/dataset", info.Port)
	if info.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", info.Port)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func section(title string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___                                   ____
   /  |/  /__  ____ ___  ___ _      ______ _/ / /
  / /|_/ / _ \/ __ '__ \/ _ \ | /| / / __ '/ / /
 / /  / /  __/ / / / / /  __/ |/ |/ / /_/ / / /
/_/  /_/\___/_/ /_/ /_/\___/|__/|__/\__,_/_/_/

------------------------------------------------------------`
	logging.Printf("%s", banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	if name == "media" && logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("    Contents: %d entries", len(entries))
		}
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
