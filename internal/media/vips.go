package media

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"memewall/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips starts libvips and routes its log output through the application
// logger at the verbosity configured there. Safe to call more than once.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	vipsLevel, handler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(handler, vipsLevel)

	// One image at a time; the pipeline is sequential anyway.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

func vipsLogging(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	forward := func(threshold vips.LogLevel) func(string, vips.LogLevel, string) {
		return func(domain string, l vips.LogLevel, msg string) {
			if l > threshold {
				return
			}
			switch l {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	}

	// glib log levels grow more verbose as the value increases.
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward(vips.LogLevelDebug)
	case logging.LevelError:
		return vips.LogLevelCritical, forward(vips.LogLevelCritical)
	default:
		return vips.LogLevelWarning, forward(vips.LogLevelWarning)
	}
}

// ShutdownVips releases libvips. govips cannot be restarted afterwards.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether InitVips succeeded.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// VipsRenderer renders width variants with libvips. It supports webp, jpeg
// and png output.
type VipsRenderer struct {
	opts VariantOptions
}

// vipsMaxCoord is libvips' largest image coordinate (VIPS_MAX_COORD).
const vipsMaxCoord = 10_000_000

// NewVipsRenderer creates a renderer; InitVips must have been called.
func NewVipsRenderer(opts VariantOptions) *VipsRenderer {
	return &VipsRenderer{opts: opts.withDefaults()}
}

// Render writes the missing variants of path and returns the picture markup.
func (r *VipsRenderer) Render(ctx context.Context, path string) (string, error) {
	if !IsVipsAvailable() {
		return "", fmt.Errorf("libvips not available")
	}
	for _, f := range r.opts.Formats {
		if _, ok := vipsExporters[f]; !ok {
			return "", fmt.Errorf("vips renderer: %w: %s", ErrUnsupportedFormat, f)
		}
	}

	dims, err := GetImageDimensions(path)
	if err != nil {
		return "", err
	}

	return renderVariants(ctx, path, dims, r.opts, func(dst, format string, width int) error {
		return r.export(path, dst, format, width)
	})
}

func (r *VipsRenderer) export(src, dst, format string, width int) error {
	// Only the width may bind: a height cap would shrink tall screenshots
	// below the width their srcset descriptor claims.
	ref, err := vips.NewThumbnailWithSizeFromFile(src, width, vipsMaxCoord, vips.InterestingNone, vips.SizeDown)
	if err != nil {
		return fmt.Errorf("vips load %s: %w", filepath.Base(src), err)
	}
	defer ref.Close()

	data, err := vipsExporters[format](ref, r.opts.Quality)
	if err != nil {
		return fmt.Errorf("vips export %s: %w", format, err)
	}

	logging.Debug("Vips rendered %s at %dpx (%s, %d bytes)", filepath.Base(src), ref.Width(), format, len(data))
	return writeFileAtomic(dst, data)
}

var vipsExporters = map[string]func(*vips.ImageRef, int) ([]byte, error){
	"webp": func(ref *vips.ImageRef, quality int) ([]byte, error) {
		p := vips.NewWebpExportParams()
		p.Quality = quality
		p.StripMetadata = true
		data, _, err := ref.ExportWebp(p)
		return data, err
	},
	"jpeg": func(ref *vips.ImageRef, quality int) ([]byte, error) {
		p := vips.NewJpegExportParams()
		p.Quality = quality
		p.StripMetadata = true
		p.OptimizeCoding = true
		data, _, err := ref.ExportJpeg(p)
		return data, err
	},
	"png": func(ref *vips.ImageRef, _ int) ([]byte, error) {
		p := vips.NewPngExportParams()
		p.StripMetadata = true
		data, _, err := ref.ExportPng(p)
		return data, err
	},
}
