package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Rob--W/pdfjs-telemetry/internal/config"
	"github.com/Rob--W/pdfjs-telemetry/internal/observability"
	"github.com/Rob--W/pdfjs-telemetry/internal/server"
	"github.com/Rob--W/pdfjs-telemetry/internal/storage"
)

func main() {
	// .env is a development convenience; deployments configure through the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg)

	sink, err := storage.OpenFileLog(cfg.Ingest.LogFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Ingest.LogFile).Msg("open telemetry log")
	}
	defer sink.Close()

	app, err := observability.NewApplication(cfg.Observability, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("new relic init")
	}
	if app != nil {
		defer app.Shutdown(5 * time.Second)
	}

	srv := server.New(cfg, logger, sink, app)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// logrotate moves the telemetry log aside and sends SIGHUP so we start
	// a fresh file at the configured path.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := sink.Reopen(); err != nil {
				logger.Error().Err(err).Msg("reopen telemetry log")
				continue
			}
			logger.Info().Str("path", cfg.Ingest.LogFile).Msg("telemetry log reopened")
		}
	}()

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		ops := observability.NewOpsServer(addr, logger)
		go func() {
			if err := ops.Start(); err != nil {
				logger.Error().Err(err).Msg("ops server")
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ops.Shutdown(sctx); err != nil {
				logger.Error().Err(err).Msg("ops server shutdown")
			}
		}()
	}

	logger.Info().Str("addr", cfg.Server.Addr).Bool("tls", cfg.Server.TLS()).Msg("listening")
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
	logger.Info().Msg("stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Primary.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var w io.Writer = os.Stdout
	if cfg.Primary.Env != "production" {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", config.ServiceName).Logger()
}
