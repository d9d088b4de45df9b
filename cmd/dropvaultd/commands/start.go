package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bilal079/dropvault/internal/adminhttp"
	"github.com/Bilal079/dropvault/internal/config"
	"github.com/Bilal079/dropvault/internal/logger"
	"github.com/Bilal079/dropvault/internal/metadata"
	"github.com/Bilal079/dropvault/internal/metadata/badgerstore"
	"github.com/Bilal079/dropvault/internal/metadata/sqlstore"
	"github.com/Bilal079/dropvault/internal/metrics"
	"github.com/Bilal079/dropvault/internal/server"
	"github.com/Bilal079/dropvault/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "start the server",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       true,
		SampleRate:     cfg.Telemetry.SampleFraction,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Profiling.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Profiling.Endpoint,
		ProfileTypes:   cfg.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("init profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	if err := os.MkdirAll(cfg.Storage.RootDir, 0o755); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}

	store, err := openStore(cfg.Metadata)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}

	logger.Info("reconciling used-byte totals")
	if err := store.Scrub(ctx, cfg.Storage.RootDir); err != nil {
		return fmt.Errorf("scrub metadata: %w", err)
	}

	startedAt := time.Now()
	m := metrics.New()
	adminSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: adminhttp.NewRouter(m, startedAt)}
	if cfg.Metrics.Enabled {
		go func() {
			logger.Info("admin http listening", "addr", cfg.Metrics.Addr)
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("admin http server error", "error", err)
			}
		}()
	}

	srv := server.New(cfg.Server, cfg.Storage.RootDir, cfg.Storage.DefaultQuota.Uint64(), store, m)

	serverDone := make(chan error, 1)
	go func() { serverDone <- srv.ListenAndServe(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("dropvaultd running", "port", cfg.Server.Port)
	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
		cancel()
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	if err := srv.Shutdown(cfg.ShutdownTimeout); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	adminSrv.Close()
	logger.Info("dropvaultd stopped")
	return nil
}

func openStore(cfg config.MetadataConfig) (metadata.Store, error) {
	switch cfg.Backend {
	case "badger":
		return badgerstore.Open(cfg.BadgerDir)
	default:
		return sqlstore.Open(cfg.SQLitePath)
	}
}
