// Package bootstrap builds the verification stack from configuration. Both
// binaries share it so the server and the CLI load the roll the same way.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"idcheck/internal/document/ocr"
	"idcheck/internal/matcher"
	"idcheck/internal/platform/config"
	"idcheck/internal/platform/postgres"
	regmetrics "idcheck/internal/registry/metrics"
	"idcheck/internal/registry/store"
	"idcheck/internal/verification"
	vmetrics "idcheck/internal/verification/metrics"
)

// LoadRoll reads the electoral roll from Postgres when a database URL is
// configured and from the delimited file otherwise. The pool is closed once
// the table is in memory.
func LoadRoll(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *regmetrics.Metrics) (*store.Table, error) {
	if cfg.Postgres.URL != "" {
		pool, err := postgres.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		defer pool.Close()

		loader, err := store.NewPostgresLoader(pool, cfg.Postgres.Table, logger, m)
		if err != nil {
			return nil, err
		}
		return loader.Load(ctx)
	}

	opts, err := cfg.Roll.CSVOptions()
	if err != nil {
		return nil, err
	}
	return store.NewCSVLoader(opts, logger, m).Load(ctx)
}

// Recognizer returns the configured OCR engine, or nil when OCR is disabled.
func Recognizer(cfg *config.Config) ocr.Recognizer {
	if cfg.OCR.Disabled {
		return nil
	}
	t := ocr.NewTesseract(cfg.OCR.TesseractPath, cfg.OCR.Language)
	t.Timeout = cfg.OCR.Timeout
	t.Whitelist = cfg.OCR.Whitelist
	return t
}

// NewService wires matcher, recognizer and layout around a loaded roll.
func NewService(cfg *config.Config, roll *store.Table, logger *slog.Logger, m *vmetrics.Metrics) (*verification.Service, error) {
	opts := []verification.Option{
		verification.WithLayout(cfg.Layout),
		verification.WithRollStats(roll),
		verification.WithLogger(logger),
		verification.WithMetrics(m),
	}
	if rec := Recognizer(cfg); rec != nil {
		opts = append(opts, verification.WithRecognizer(rec))
	}
	svc, err := verification.New(matcher.New(roll, logger), opts...)
	if err != nil {
		return nil, fmt.Errorf("build verification service: %w", err)
	}
	return svc, nil
}
