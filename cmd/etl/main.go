// Command etl ingests Met Office CSV observations into a Parquet store,
// reloads it and prints the hottest-day report.
//
// Usage:
//
//	go run ./cmd/etl -source-dir data/csv -dest-dir data/parquet
//
// Settings come from the environment (and a .env file when present); the
// flags override SOURCE_DIR and DESTINATION_DIR.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/weather-data-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/weather-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/weather-data-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/weather-data-etl/internal/config"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
	"github.com/couchcryptid/weather-data-etl/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		return 1
	}

	sourceDir := flag.String("source-dir", "", "directory of CSV observation files (overrides SOURCE_DIR)")
	destDir := flag.String("dest-dir", "", "directory for the Parquet store (overrides DESTINATION_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if *sourceDir != "" {
		cfg.SourceDir = *sourceDir
	}
	if *destDir != "" {
		cfg.DestinationDir = *destDir
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var opts []pipeline.Option
	if cfg.PublishEnabled() {
		writer := kafkaadapter.NewReportWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("report publishing enabled", "topic", cfg.KafkaReportTopic)
	}

	p := pipeline.NewForDirs(cfg.SourceDir, cfg.DestinationDir, logger, metrics, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := p.Run(ctx)
	if err != nil {
		return 1
	}

	if err := domain.WriteReport(os.Stdout, cfg.ReportFormat, report); err != nil {
		logger.Error("write report failed", "error", err)
		return 1
	}

	if cfg.ReportXLSXPath != "" {
		if err := xlsx.NewExporter(logger).WriteFile(cfg.ReportXLSXPath, report); err != nil {
			logger.Error("export workbook failed", "error", err)
			return 1
		}
	}

	if !cfg.Serve {
		return 0
	}
	return serve(ctx, cfg, p, logger)
}

// serve keeps the report and health endpoints up until a shutdown signal.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) int {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	code := 0
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server error", "error", err)
			code = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return code
}
