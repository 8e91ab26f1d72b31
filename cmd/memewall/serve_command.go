package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"memewall/internal/export"
	"memewall/internal/logging"
	"memewall/internal/metrics"
	"memewall/internal/middleware"
	"memewall/internal/server"
	"memewall/internal/startup"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview a built dataset over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg, ctx.configFile)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides server.port)")
	return cmd
}

func runServe(ctx context.Context, cfg *startup.Config, configFile string) error {
	startTime := time.Now()
	startup.Announce(cfg, configFile)

	if cfg.Server.MetricsEnabled {
		metrics.InitializeMetrics()
		metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	}

	srv, err := server.New(serverOptions(cfg))
	if err != nil {
		return fmt.Errorf("load dataset (run `memewall build` first): %w", err)
	}
	startup.LogHTTPRoutes(srv.Router())

	collector := metrics.NewCollector(srv, cfg.CollectInterval())
	collector.Start()

	httpSrv := &http.Server{
		Addr:         net.JoinHostPort("", cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go handleShutdown(ctx, httpSrv, collector, done)

	startup.LogServerStarted(startup.ServerInfo{
		Port:            cfg.Server.Port,
		MetricsEnabled:  cfg.Server.MetricsEnabled,
		Memes:           srv.GetStats().Memes,
		StartupDuration: time.Since(startTime),
	})

	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		collector.Stop()
		return fmt.Errorf("server: %w", err)
	}
	<-done
	return nil
}

func serverOptions(cfg *startup.Config) server.Options {
	opts := server.Options{
		DatasetPath:    export.PathsIn(cfg.Output.Dir).Dataset,
		MetricsEnabled: cfg.Server.MetricsEnabled,
		Logging: middleware.LoggingConfig{
			SkipPaths:       []string{"/metrics"},
			SkipMediaFiles:  !cfg.Server.LogMediaFiles,
			MediaPrefix:     cfg.Media.URLPrefix + "/",
			LogHealthChecks: cfg.Server.LogHealthChecks,
		},
	}

	for _, d := range []server.StaticDir{
		{URLPrefix: cfg.Media.URLPrefix, Dir: cfg.Media.Dir},
		{URLPrefix: cfg.Images.URLPrefix, Dir: cfg.Images.Dir},
	} {
		// Absolute URL prefixes point at a CDN, not at local files.
		if d.URLPrefix == "" || d.Dir == "" || strings.Contains(d.URLPrefix, "://") {
			continue
		}
		opts.Static = append(opts.Static, d)
	}
	return opts
}

func handleShutdown(ctx context.Context, srv *http.Server, collector *metrics.Collector, done chan<- struct{}) {
	defer close(done)
	<-ctx.Done()

	startup.LogShutdownInitiated("interrupt")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
