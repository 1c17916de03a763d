package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idcheck/internal/bootstrap"
	"idcheck/internal/platform/config"
	"idcheck/internal/platform/middleware"
	"idcheck/internal/verification/handler"
	"idcheck/pkg/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	path := filepath.Join(t.TempDir(), "roll.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"id,given_names,first_surname,second_surname\n"+
			"100200300,MARIA JOSE,GARCIA,LOPEZ\n"+
			"100200300,DUPLICATE,ROW,IGNORED\n"+
			"abc,BROKEN,ID,ROW\n",
	), 0o600))
	cfg := config.Default()
	cfg.Roll.Path = path
	cfg.OCR.Disabled = true

	roll, err := bootstrap.LoadRoll(context.Background(), cfg, log, nil)
	require.NoError(t, err)
	svc, err := bootstrap.NewService(cfg, roll, log, nil)
	require.NoError(t, err)
	return newRouter(handler.New(svc, log), log, nil)
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	testutil.Given(t, "a roll with one citizen", func(t *testing.T) {
		testutil.When(t, "the exact claim is posted", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/verifications", map[string]string{
				"claimed_id":        "100200300",
				"claimed_full_name": "MARIA JOSE GARCIA LOPEZ",
			})
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it is authentic and carries a request id", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
				resp := testutil.UnmarshalResponse[handler.VerifyResponse](t, rr)
				assert.True(t, resp.Authentic)
				assert.True(t, resp.Fields.Found)
			})
		})

		testutil.When(t, "the name differs only in case", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/verifications", map[string]string{
				"claimed_id":        "100200300",
				"claimed_full_name": "Maria Jose Garcia Lopez",
			})
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it is not authentic", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				testutil.AssertJSONContains(t, rr, "authentic", false)
			})
		})

		testutil.When(t, "the id is malformed", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/verifications", map[string]string{
				"claimed_id":        "12-34",
				"claimed_full_name": "MARIA JOSE GARCIA LOPEZ",
			})
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the caller gets invalid_input", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
			})
		})

		testutil.When(t, "a document is uploaded without OCR configured", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewImageUploadRequest(t, "/verifications/document", []byte("png")))

			testutil.Then(t, "the service is unavailable", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "unavailable")
			})
		})
	})

	t.Run("registry stats", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/registry/stats", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[handler.StatsResponse](t, rr)
		assert.Equal(t, 2, resp.Records)
		assert.Equal(t, 1, resp.Duplicates)
		assert.Equal(t, 1, resp.Rejected)
	})

	t.Run("healthz", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, "ok", rr.Body.String())
	})

	t.Run("metrics", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})
}
