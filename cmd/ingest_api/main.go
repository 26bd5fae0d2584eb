// Package main serves pipeline runs over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/DjordjeVuckovic/table-ingest/internal/config"
	"github.com/DjordjeVuckovic/table-ingest/internal/pipeline"
	"github.com/DjordjeVuckovic/table-ingest/internal/server"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/factory"
	pkgserver "github.com/DjordjeVuckovic/table-ingest/pkg/server"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	sCfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load storage configuration", "error", err)
		os.Exit(1)
	}

	sink, err := factory.NewSink(context.Background(), storageCfg)
	if err != nil {
		slog.Error("Failed to create table sink", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			slog.Warn("Failed to close sink", "error", err)
		}
	}()

	var healthChecker pkgserver.HealthChecker = pkgserver.NewOkHealthChecker()
	if p, ok := sink.Backend().(storage.Pinger); ok {
		healthChecker = pkgserver.NewPingHealthChecker(p)
	}

	s := server.NewServer(echo.New(), sCfg).
		SetupHealthChecks("/health", healthChecker).
		SetupMetrics("/metrics")

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(200, "Table ingest API is running")
	})

	runs := server.NewRunsRouter(s.Echo, pipeline.NewRunner(), sink, config.LoadOptionsEnv(), sCfg.RunTimeout)
	runs.Bind()

	slog.Info("Serving runs", "storageType", storageCfg.Type, "port", sCfg.Port)
	if err := s.Start(); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
