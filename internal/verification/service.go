// Package verification orchestrates document recognition and roll matching.
package verification

import (
	"context"
	"image"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"idcheck/internal/document/imaging"
	"idcheck/internal/document/ocr"
	"idcheck/internal/matcher"
	"idcheck/internal/registry/models"
	"idcheck/internal/verification/metrics"
	dErrors "idcheck/pkg/domain-errors"
	"idcheck/pkg/requestcontext"
)

// Matcher is the roll comparison the service depends on.
type Matcher interface {
	Explain(ctx context.Context, claimedID, claimedFullName string) (matcher.Result, error)
}

// RollStats exposes how the roll was loaded.
type RollStats interface {
	Stats() models.LoadStats
}

// Service verifies claims typed by a caller or read from a scan.
type Service struct {
	matcher    Matcher
	recognizer ocr.Recognizer
	roll       RollStats
	layout     Layout
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithRecognizer enables VerifyDocument.
func WithRecognizer(r ocr.Recognizer) Option {
	return func(s *Service) { s.recognizer = r }
}

// WithLayout overrides DefaultLayout.
func WithLayout(l Layout) Option {
	return func(s *Service) { s.layout = l }
}

// WithRollStats lets the service report on the loaded roll.
func WithRollStats(r RollStats) Option {
	return func(s *Service) { s.roll = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the service. The layout is validated here so a bad
// configuration fails at startup.
func New(m Matcher, opts ...Option) (*Service, error) {
	s := &Service{
		matcher: m,
		layout:  DefaultLayout(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := s.layout.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// VerifyClaim matches a claim supplied directly by the caller.
func (s *Service) VerifyClaim(ctx context.Context, claim ClaimedIdentity) (*Result, error) {
	start := time.Now()
	res, err := s.match(ctx, SourceClaim, claim)
	s.metrics.ObserveDuration(string(SourceClaim), time.Since(start))
	return res, err
}

// VerifyDocument reads the ID number and full name from a scan and matches
// them against the roll.
func (s *Service) VerifyDocument(ctx context.Context, r io.Reader) (*Result, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDuration(string(SourceDocument), time.Since(start)) }()

	if s.recognizer == nil {
		s.metrics.IncrementOutcome(string(SourceDocument), "error")
		return nil, dErrors.New(dErrors.CodeUnavailable, "document recognition is not configured")
	}

	claim, err := s.readDocument(ctx, r)
	if err != nil {
		outcome := "error"
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			outcome = "invalid"
		}
		s.metrics.IncrementOutcome(string(SourceDocument), outcome)
		s.logger.ErrorContext(ctx, "document recognition failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}
	return s.match(ctx, SourceDocument, claim)
}

// Stats reports the loaded roll, or zero stats when none was wired.
func (s *Service) Stats() models.LoadStats {
	if s.roll == nil {
		return models.LoadStats{}
	}
	return s.roll.Stats()
}

func (s *Service) match(ctx context.Context, source Source, claim ClaimedIdentity) (*Result, error) {
	res, err := s.matcher.Explain(ctx, claim.ClaimedID, claim.ClaimedFullName)
	if err != nil {
		outcome := "error"
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			outcome = "invalid"
		} else {
			err = dErrors.Wrap(err, dErrors.CodeInternal, "verification failed")
		}
		s.metrics.IncrementOutcome(string(source), outcome)
		s.logger.InfoContext(ctx, "verification rejected",
			"request_id", requestcontext.RequestID(ctx),
			"source", source,
			"error", err,
		)
		return nil, err
	}

	outcome := "not_authentic"
	if res.Authentic {
		outcome = "authentic"
	}
	s.metrics.IncrementOutcome(string(source), outcome)
	s.logger.InfoContext(ctx, "verification completed",
		"request_id", requestcontext.RequestID(ctx),
		"source", source,
		"authentic", res.Authentic,
		"found", res.Fields.Found,
	)

	return &Result{
		Authentic:       res.Authentic,
		Source:          source,
		ClaimedID:       claim.ClaimedID,
		ClaimedFullName: claim.ClaimedFullName,
		Fields:          res.Fields,
		CheckedAt:       requestcontext.Now(ctx),
	}, nil
}

func (s *Service) readDocument(ctx context.Context, r io.Reader) (ClaimedIdentity, error) {
	img, _, err := imaging.Decode(r)
	if err != nil {
		return ClaimedIdentity{}, err
	}
	prepared := imaging.Binarize(img)

	idRegion, err := imaging.Crop(prepared, s.layout.ID)
	if err != nil {
		return ClaimedIdentity{}, err
	}
	nameRegion, err := imaging.Crop(prepared, s.layout.Name)
	if err != nil {
		return ClaimedIdentity{}, err
	}

	var rawID, rawName string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.recognize(gctx, "id", idRegion)
		rawID = text
		return err
	})
	g.Go(func() error {
		text, err := s.recognize(gctx, "name", nameRegion)
		rawName = text
		return err
	})
	if err := g.Wait(); err != nil {
		return ClaimedIdentity{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "text recognition failed")
	}

	return ClaimedIdentity{
		ClaimedID:       CleanDocumentNumber(rawID),
		ClaimedFullName: strings.Join(strings.Fields(rawName), " "),
	}, nil
}

func (s *Service) recognize(ctx context.Context, field string, region image.Image) (string, error) {
	start := time.Now()
	text, err := s.recognizer.Recognize(ctx, region, ocr.HintLine)
	s.metrics.ObserveRecognition(field, time.Since(start))
	return text, err
}

// CleanDocumentNumber removes the grouping separators printed on ID cards
// ("1.020.304.050", "1 020 304 050", "1,020-304") so the number can be parsed.
// Anything else is left in place for the matcher to reject.
func CleanDocumentNumber(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '-', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, raw)
}
