package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"memewall/internal/export"
	"memewall/internal/logging"
	"memewall/internal/metrics"
	"memewall/internal/startup"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run the pipeline and write the dataset files",
		Long: "Runs the pipeline and writes the dataset and meme index into the output\n" +
			"directory. Nothing is written when the run fails, except the metrics\n" +
			"textfile when one is configured.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, ctx)
		},
	}
}

func runBuild(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireSource(); err != nil {
		return err
	}

	startup.Announce(cfg, ctx.configFile)
	if err := startup.PrepareDirectories(cfg); err != nil {
		return err
	}

	if cfg.Output.MetricsTextfile != "" {
		metrics.InitializeMetrics()
		metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	}

	start := time.Now()
	ds, runErr := ctx.runPipeline(cmd.Context(), metrics.NewPipelineObserver())
	if runErr == nil {
		paths := export.PathsIn(cfg.Output.Dir)
		if !cfg.Output.Index {
			paths.Index = ""
		}
		if err := export.Write(paths, ds); err != nil {
			runErr = fmt.Errorf("write dataset: %w", err)
		} else {
			logging.Info("Wrote %d memes to %s in %v", len(ds.Memes), paths.Dataset, time.Since(start).Round(time.Millisecond))
		}
	}

	if cfg.Output.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.Output.MetricsTextfile); err != nil {
			return errors.Join(runErr, fmt.Errorf("write metrics textfile: %w", err))
		}
		logging.Debug("Wrote metrics textfile %s", cfg.Output.MetricsTextfile)
	}
	return runErr
}
