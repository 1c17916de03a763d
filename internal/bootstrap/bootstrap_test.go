package bootstrap

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idcheck/internal/document/ocr"
	"idcheck/internal/platform/config"
	"idcheck/internal/verification"
	dErrors "idcheck/pkg/domain-errors"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roll.csv")
	body := "id;given_names;first_surname;second_surname\n" +
		"100200300;MARIA JOSE;GARCIA;LOPEZ\n" +
		"5;ANA;RUIZ;DIAZ\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg := config.Default()
	cfg.Roll.Path = path
	cfg.Roll.Delimiter = "semicolon"
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestLoadRollFromFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)

	roll, err := LoadRoll(context.Background(), cfg, logger, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, roll.Len())
}

func TestLoadRollBadDatabaseURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)
	cfg.Postgres.URL = "postgres://%zz"

	_, err := LoadRoll(context.Background(), cfg, logger, nil)
	require.Error(t, err)
}

func TestRecognizer(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.TesseractPath = "/opt/tesseract"
	cfg.OCR.Whitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZÁÉÍÓÚÑ "

	rec, ok := Recognizer(cfg).(*ocr.Tesseract)
	require.True(t, ok)
	assert.Equal(t, "/opt/tesseract", rec.Path)
	assert.Equal(t, cfg.OCR.Timeout, rec.Timeout)
	assert.Equal(t, cfg.OCR.Whitelist, rec.Whitelist)

	cfg.OCR.Disabled = true
	assert.Nil(t, Recognizer(cfg))
}

func TestNewService(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)
	cfg.OCR.Disabled = true
	ctx := context.Background()

	roll, err := LoadRoll(ctx, cfg, logger, nil)
	require.NoError(t, err)
	svc, err := NewService(cfg, roll, logger, nil)
	require.NoError(t, err)

	t.Run("claims are matched against the loaded roll", func(t *testing.T) {
		res, err := svc.VerifyClaim(ctx, verification.ClaimedIdentity{
			ClaimedID:       "100200300",
			ClaimedFullName: "MARIA JOSE GARCIA LOPEZ",
		})
		require.NoError(t, err)
		assert.True(t, res.Authentic)
	})

	t.Run("stats come from the roll", func(t *testing.T) {
		assert.Equal(t, 2, svc.Stats().Records)
	})

	t.Run("documents need a recognizer", func(t *testing.T) {
		_, err := svc.VerifyDocument(ctx, bytes.NewReader([]byte("png")))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}
