package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"idcheck/internal/bootstrap"
	"idcheck/internal/platform/config"
	"idcheck/internal/platform/httpserver"
	"idcheck/internal/platform/logger"
	platformmetrics "idcheck/internal/platform/metrics"
	regmetrics "idcheck/internal/registry/metrics"
	"idcheck/internal/verification/handler"
	vmetrics "idcheck/internal/verification/metrics"
)

// main loads the roll once, then serves verification requests against it
// until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	roll, err := bootstrap.LoadRoll(ctx, cfg, log, regmetrics.New())
	if err != nil {
		return err
	}

	svc, err := bootstrap.NewService(cfg, roll, log, vmetrics.New())
	if err != nil {
		return err
	}
	if cfg.OCR.Disabled {
		log.Warn("document verification disabled")
	}

	router := newRouter(handler.New(svc, log), log, platformmetrics.New())
	srv := httpserver.New(cfg.Server.Addr, router, httpserver.Options{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	return httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
}
