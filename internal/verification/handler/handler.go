package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"idcheck/internal/registry/models"
	"idcheck/internal/verification"
	dErrors "idcheck/pkg/domain-errors"
	"idcheck/pkg/platform/httputil"
	"idcheck/pkg/requestcontext"
)

// MaxImageBytes bounds uploaded document scans.
const MaxImageBytes = 10 << 20

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the verification operations exposed over HTTP.
type Service interface {
	VerifyClaim(ctx context.Context, claim verification.ClaimedIdentity) (*verification.Result, error)
	VerifyDocument(ctx context.Context, image io.Reader) (*verification.Result, error)
	Stats() models.LoadStats
}

// Handler wires verification endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifications", h.handleVerifyClaim)
	r.Post("/verifications/document", h.handleVerifyDocument)
	r.Get("/registry/stats", h.handleRegistryStats)
}

// handleVerifyClaim handles POST /verifications.
func (h *Handler) handleVerifyClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[VerifyClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.VerifyClaim(ctx, req.ToClaim())
	if err != nil {
		h.writeServiceError(ctx, w, requestID, err)
		return
	}

	h.logger.InfoContext(ctx, "claim verified",
		"request_id", requestID,
		"authentic", result.Authentic,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// handleVerifyDocument handles POST /verifications/document. The scan is read
// from the multipart field "image", or from the raw body for image/* content
// types.
func (h *Handler) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes)
	image, closeImage, err := documentImage(r)
	if err != nil {
		h.logger.WarnContext(ctx, "document upload rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	defer closeImage()

	result, err := h.service.VerifyDocument(ctx, image)
	if err != nil {
		h.writeServiceError(ctx, w, requestID, err)
		return
	}

	h.logger.InfoContext(ctx, "document verified",
		"request_id", requestID,
		"authentic", result.Authentic,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// handleRegistryStats handles GET /registry/stats.
func (h *Handler) handleRegistryStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, FromStats(h.service.Stats()))
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, requestID string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func documentImage(r *http.Request) (io.Reader, func(), error) {
	contentType := r.Header.Get("Content-Type")
	if isImageContentType(contentType) {
		return r.Body, func() {}, nil
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, dErrors.New(dErrors.CodeBadRequest, "image exceeds the upload limit")
		}
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "multipart field \"image\" is required")
	}
	return file, func() { _ = file.Close() }, nil
}
