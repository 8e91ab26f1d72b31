package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"memewall/internal/logging"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is looked up in the working directory when no config path
// is given.
const DefaultConfigFile = "memewall.toml"

// Sheet locates the form response spreadsheet tab.
type Sheet struct {
	ID      string `toml:"id"`
	TabID   string `toml:"tab_id"`
	BaseURL string `toml:"base_url"`
}

// Glossary names the documents holding the facet hierarchies. An empty
// document ID puts every value of that category in the Other group.
type Glossary struct {
	MemeTypesDoc     string `toml:"meme_types_doc"`
	TemplateTypesDoc string `toml:"template_types_doc"`
	BaseURL          string `toml:"base_url"`
}

// Media configures the downloaded media directory.
type Media struct {
	Dir          string `toml:"dir"`
	URLPrefix    string `toml:"url_prefix"`
	DriveBaseURL string `toml:"drive_base_url"`
}

// Images configures responsive variant generation.
type Images struct {
	// Renderer is "auto" (libvips when available, else imaging), "vips" or
	// "imaging".
	Renderer        string   `toml:"renderer"`
	Formats         []string `toml:"formats"`
	Widths          []int    `toml:"widths"`
	Quality         int      `toml:"quality"`
	Sizes           string   `toml:"sizes"`
	Dir             string   `toml:"dir"`
	URLPrefix       string   `toml:"url_prefix"`
	LegacyThumbnail bool     `toml:"legacy_thumbnail"`
}

// Output configures the build artifacts.
type Output struct {
	Dir             string `toml:"dir"`
	Index           bool   `toml:"index"`
	MetricsTextfile string `toml:"metrics_textfile"`
}

// Server configures the preview server.
type Server struct {
	Port                   string `toml:"port"`
	MetricsEnabled         bool   `toml:"metrics_enabled"`
	LogHealthChecks        bool   `toml:"log_health_checks"`
	LogMediaFiles          bool   `toml:"log_media_files"`
	CollectIntervalSeconds int    `toml:"collect_interval_seconds"`
}

// HTTP configures outbound requests.
type HTTP struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// Logging configures log output.
type Logging struct {
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
}

// Config holds all application configuration.
//
// Sections by subsystem:
//   - Sheet: form response spreadsheet
//   - Glossary: facet hierarchy documents
//   - Media: downloaded media directory
//   - Images: responsive variants
//   - Output: dataset, index and metrics textfile
//   - Server: preview server
//   - HTTP: outbound request settings
//   - Logging: level and colour
type Config struct {
	Sheet    Sheet    `toml:"sheet"`
	Glossary Glossary `toml:"glossary"`
	Media    Media    `toml:"media"`
	Images   Images   `toml:"images"`
	Output   Output   `toml:"output"`
	Server   Server   `toml:"server"`
	HTTP     HTTP     `toml:"http"`
	Logging  Logging  `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Media: Media{
			Dir:       "public/media",
			URLPrefix: "/media",
		},
		Images: Images{
			Renderer:  "auto",
			Formats:   []string{"webp"},
			Widths:    []int{320, 640, 1280},
			Quality:   80,
			Sizes:     "100vw",
			Dir:       "public/img",
			URLPrefix: "/img",
		},
		Output: Output{
			Dir:   "public",
			Index: true,
		},
		Server: Server{
			Port:                   "8080",
			MetricsEnabled:         true,
			CollectIntervalSeconds: 60,
		},
		HTTP: HTTP{
			TimeoutSeconds: 60,
			UserAgent:      "memewall/" + Version,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// HTTPTimeout returns the outbound request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// CollectInterval returns the dataset metrics refresh interval.
func (c *Config) CollectInterval() time.Duration {
	return time.Duration(c.Server.CollectIntervalSeconds) * time.Second
}

// LoadConfig builds the configuration from defaults, the TOML file at path
// (or DefaultConfigFile when present), MEMEWALL_* environment variables and
// finally override, which the CLI uses for flags. It returns the config file
// actually read, or "" when none was.
func LoadConfig(path string, override func(*Config)) (*Config, string, error) {
	cfg := Default()

	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}
	if resolved != "" {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", err
		}
	}

	applyEnv(&cfg)
	if override != nil {
		override(&cfg)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return path, nil
	}

	info, err := os.Stat(DefaultConfigFile)
	switch {
	case err == nil && !info.IsDir():
		return DefaultConfigFile, nil
	case err == nil, errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		return "", fmt.Errorf("stat config: %w", err)
	}
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables. LOG_LEVEL is honoured without the
// prefix as well.
func applyEnv(cfg *Config) {
	cfg.Sheet.ID = getEnv("MEMEWALL_SHEET_ID", cfg.Sheet.ID)
	cfg.Sheet.TabID = getEnv("MEMEWALL_SHEET_TAB_ID", cfg.Sheet.TabID)
	cfg.Glossary.MemeTypesDoc = getEnv("MEMEWALL_MEME_TYPES_DOC", cfg.Glossary.MemeTypesDoc)
	cfg.Glossary.TemplateTypesDoc = getEnv("MEMEWALL_TEMPLATE_TYPES_DOC", cfg.Glossary.TemplateTypesDoc)
	cfg.Media.Dir = getEnv("MEMEWALL_MEDIA_DIR", cfg.Media.Dir)
	cfg.Media.URLPrefix = getEnv("MEMEWALL_MEDIA_URL_PREFIX", cfg.Media.URLPrefix)
	cfg.Images.Renderer = getEnv("MEMEWALL_IMAGE_RENDERER", cfg.Images.Renderer)
	cfg.Images.Formats = getEnvList("MEMEWALL_IMAGE_FORMATS", cfg.Images.Formats)
	cfg.Images.Widths = getEnvInts("MEMEWALL_IMAGE_WIDTHS", cfg.Images.Widths)
	cfg.Images.Quality = getEnvInt("MEMEWALL_IMAGE_QUALITY", cfg.Images.Quality)
	cfg.Images.Dir = getEnv("MEMEWALL_IMAGE_DIR", cfg.Images.Dir)
	cfg.Images.LegacyThumbnail = getEnvBool("MEMEWALL_LEGACY_THUMBNAIL", cfg.Images.LegacyThumbnail)
	cfg.Output.Dir = getEnv("MEMEWALL_OUTPUT_DIR", cfg.Output.Dir)
	cfg.Output.MetricsTextfile = getEnv("MEMEWALL_METRICS_TEXTFILE", cfg.Output.MetricsTextfile)
	cfg.Server.Port = getEnv("MEMEWALL_PORT", cfg.Server.Port)
	cfg.Server.MetricsEnabled = getEnvBool("MEMEWALL_METRICS_ENABLED", cfg.Server.MetricsEnabled)
	cfg.HTTP.TimeoutSeconds = getEnvInt("MEMEWALL_HTTP_TIMEOUT_SECONDS", cfg.HTTP.TimeoutSeconds)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Level = getEnv("MEMEWALL_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.NoColor = getEnvBool("NO_COLOR", cfg.Logging.NoColor)
}

func (c *Config) normalize() error {
	var err error
	for _, dir := range []*string{&c.Media.Dir, &c.Images.Dir, &c.Output.Dir} {
		if *dir == "" {
			continue
		}
		if *dir, err = filepath.Abs(*dir); err != nil {
			return fmt.Errorf("resolve path %q: %w", *dir, err)
		}
	}
	if c.Output.MetricsTextfile != "" {
		if c.Output.MetricsTextfile, err = filepath.Abs(c.Output.MetricsTextfile); err != nil {
			return fmt.Errorf("resolve metrics textfile: %w", err)
		}
	}

	c.Images.Renderer = strings.ToLower(strings.TrimSpace(c.Images.Renderer))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Media.URLPrefix = cleanPrefix(c.Media.URLPrefix)
	c.Images.URLPrefix = cleanPrefix(c.Images.URLPrefix)
	return nil
}

func cleanPrefix(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") && !strings.Contains(p, "://") {
		p = "/" + p
	}
	return p
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []error

	switch c.Images.Renderer {
	case "auto", "vips", "imaging":
	default:
		errs = append(errs, fmt.Errorf("images.renderer must be auto, vips or imaging, got %q", c.Images.Renderer))
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		errs = append(errs, fmt.Errorf("images.quality must be between 1 and 100, got %d", c.Images.Quality))
	}
	for _, w := range c.Images.Widths {
		if w <= 0 {
			errs = append(errs, fmt.Errorf("images.widths must be positive, got %d", w))
			break
		}
	}
	if c.Media.Dir == "" {
		errs = append(errs, errors.New("media.dir is required"))
	} else {
		// Purge removes every unreferenced file in media.dir.
		media := filepath.Clean(c.Media.Dir)
		if c.Images.Dir != "" && filepath.Clean(c.Images.Dir) == media {
			errs = append(errs, fmt.Errorf("images.dir must differ from media.dir (%s)", c.Media.Dir))
		}
		if c.Output.Dir != "" && filepath.Clean(c.Output.Dir) == media {
			errs = append(errs, fmt.Errorf("output.dir must differ from media.dir (%s)", c.Media.Dir))
		}
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout_seconds must be positive, got %d", c.HTTP.TimeoutSeconds))
	}
	if c.Server.CollectIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("server.collect_interval_seconds must be positive, got %d", c.Server.CollectIntervalSeconds))
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("server.port is not a valid port: %q", c.Server.Port))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RequireSource reports whether the spreadsheet is configured. Commands that
// run the pipeline call it; serving a built dataset does not need it.
func (c *Config) RequireSource() error {
	if c.Sheet.ID == "" {
		return errors.New("sheet.id is required (set it in the config file or MEMEWALL_SHEET_ID)")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInts(key string, defaultValue []int) []int {
	parts := getEnvList(key, nil)
	if parts == nil {
		return defaultValue
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			logging.Warn("Invalid integer list for %s: %q, using default: %v", key, os.Getenv(key), defaultValue)
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}
