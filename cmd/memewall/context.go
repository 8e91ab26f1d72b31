package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"memewall/internal/filesystem"
	"memewall/internal/glossary"
	"memewall/internal/logging"
	"memewall/internal/media"
	"memewall/internal/mediastore"
	"memewall/internal/memory"
	"memewall/internal/metrics"
	"memewall/internal/pipeline"
	"memewall/internal/sheet"
	"memewall/internal/startup"
)

type commandContext struct {
	configFlag   string
	logLevelFlag string
	noColorFlag  bool

	configOnce sync.Once
	config     *startup.Config
	configFile string
	configErr  error
}

func (c *commandContext) ensureConfig() (*startup.Config, error) {
	c.configOnce.Do(func() {
		cfg, file, err := startup.LoadConfig(strings.TrimSpace(c.configFlag), c.applyFlags)
		if err != nil {
			c.configErr = err
			return
		}
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			c.configErr = err
			return
		}
		logging.Configure(logging.Options{Level: level, NoColor: cfg.Logging.NoColor})
		memory.ConfigureFromEnv()
		filesystem.SetObserver(metrics.NewFilesystemObserver())
		c.config = cfg
		c.configFile = file
	})
	return c.config, c.configErr
}

func (c *commandContext) applyFlags(cfg *startup.Config) {
	if c.logLevelFlag != "" {
		cfg.Logging.Level = c.logLevelFlag
	}
	if c.noColorFlag {
		cfg.Logging.NoColor = true
	}
}

// runPipeline wires the production collaborators and runs the pipeline once.
func (c *commandContext) runPipeline(ctx context.Context, observer pipeline.Observer) (*pipeline.Dataset, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireSource(); err != nil {
		return nil, err
	}

	renderer, cleanup, err := newRenderer(cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	p := pipeline.New(pipeline.Options{
		MediaDir:       cfg.Media.Dir,
		MediaURLPrefix: cfg.Media.URLPrefix,
		Verbosity:      logging.GetLevel(),
		Observer:       observer,
	}, newDependencies(cfg, renderer))

	return p.Run(ctx)
}

func newDependencies(cfg *startup.Config, renderer media.Renderer) pipeline.Dependencies {
	timeout := cfg.HTTPTimeout()
	ua := cfg.HTTP.UserAgent

	return pipeline.Dependencies{
		Rows: sheet.NewClient(sheet.Config{
			BaseURL:   cfg.Sheet.BaseURL,
			SheetID:   cfg.Sheet.ID,
			TabID:     cfg.Sheet.TabID,
			UserAgent: ua,
			Timeout:   timeout,
		}, nil),
		Media: mediastore.NewFetcher(mediastore.Config{
			BaseURL:   cfg.Media.DriveBaseURL,
			UserAgent: ua,
			Timeout:   timeout,
		}, nil),
		Purger:   mediastore.Purger{},
		Analyzer: media.NewAnalyzer(renderer, cfg.Images.LegacyThumbnail),
		Hierarchies: pipeline.GlossaryHierarchies{
			Client:           glossary.NewClient(cfg.Glossary.BaseURL, ua, timeout, nil),
			MemeTypesDoc:     cfg.Glossary.MemeTypesDoc,
			TemplateTypesDoc: cfg.Glossary.TemplateTypesDoc,
		},
	}
}

// newRenderer picks the variant renderer. The returned cleanup releases
// libvips when it was started.
func newRenderer(cfg *startup.Config) (media.Renderer, func(), error) {
	opts := media.VariantOptions{
		Formats:   cfg.Images.Formats,
		Widths:    cfg.Images.Widths,
		OutputDir: cfg.Images.Dir,
		URLPrefix: cfg.Images.URLPrefix,
		Quality:   cfg.Images.Quality,
		Sizes:     cfg.Images.Sizes,
	}

	switch cfg.Images.Renderer {
	case "imaging":
		startup.LogRendererInit("imaging", false)
		return media.NewImagingRenderer(opts), func() {}, nil
	case "vips", "auto":
		if err := media.InitVips(); err != nil {
			if cfg.Images.Renderer == "vips" {
				return nil, nil, fmt.Errorf("start libvips: %w", err)
			}
			logging.Warn("libvips unavailable, falling back to imaging: %v", err)
			startup.LogRendererInit("imaging", false)
			return media.NewImagingRenderer(opts), func() {}, nil
		}
		startup.LogRendererInit("vips", media.IsVipsAvailable())
		return media.NewVipsRenderer(opts), media.ShutdownVips, nil
	default:
		return nil, nil, fmt.Errorf("unknown image renderer %q", cfg.Images.Renderer)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
