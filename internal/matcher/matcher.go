// Package matcher decides whether a claimed identity matches the electoral
// roll. It only reads the roll; a single Matcher is shared by every request.
package matcher

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"idcheck/internal/registry/models"
	"idcheck/internal/registry/store"
	id "idcheck/pkg/domain"
)

// Claim is a parsed claimed identity.
type Claim struct {
	ID   id.CitizenID
	Name Name
}

// FieldMatch reports each comparison made against the roll record.
type FieldMatch struct {
	Found         bool `json:"found"`
	GivenNames    bool `json:"given_names"`
	FirstSurname  bool `json:"first_surname"`
	SecondSurname bool `json:"second_surname"`
}

// Result is the outcome of a match. Claim is nil when the input was rejected
// as empty before parsing.
type Result struct {
	Authentic bool
	Claim     *Claim
	Fields    FieldMatch
}

// Matcher compares claims to a loaded roll.
type Matcher struct {
	roll   store.Reader
	logger *slog.Logger
}

// New builds a matcher over roll.
func New(roll store.Reader, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Matcher{roll: roll, logger: logger}
}

// ParseClaim validates the raw claim. ok is false when either value is empty
// or blank, which callers treat as a non-match rather than an error.
func ParseClaim(claimedID, claimedFullName string) (claim Claim, ok bool, err error) {
	if strings.TrimSpace(claimedID) == "" || strings.TrimSpace(claimedFullName) == "" {
		return Claim{}, false, nil
	}
	citizenID, err := id.ParseCitizenID(claimedID)
	if err != nil {
		return Claim{}, false, err
	}
	name, err := SplitFullName(claimedFullName)
	if err != nil {
		return Claim{}, false, err
	}
	return Claim{ID: citizenID, Name: name}, true, nil
}

// Verify reports whether the claimed ID exists and all three name parts match
// the record exactly. Malformed input returns an invalid_input error.
func (m *Matcher) Verify(ctx context.Context, claimedID, claimedFullName string) (bool, error) {
	res, err := m.Explain(ctx, claimedID, claimedFullName)
	if err != nil {
		return false, err
	}
	return res.Authentic, nil
}

// Explain is Verify with per-field detail.
func (m *Matcher) Explain(ctx context.Context, claimedID, claimedFullName string) (Result, error) {
	ctx, span := otel.Tracer("idcheck/matcher").Start(ctx, "matcher.Verify",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	claim, ok, err := ParseClaim(claimedID, claimedFullName)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}
	if !ok {
		span.SetAttributes(attribute.String("matcher.outcome", "empty_input"))
		return Result{}, nil
	}

	res := Result{Claim: &claim}
	record, found := m.roll.FindByID(claim.ID)
	if !found {
		span.SetAttributes(attribute.String("matcher.outcome", "not_found"))
		m.logger.DebugContext(ctx, "claimed id not in roll")
		return res, nil
	}
	res.Fields = compare(record, claim.Name)
	res.Authentic = res.Fields.GivenNames && res.Fields.FirstSurname && res.Fields.SecondSurname

	span.SetAttributes(attribute.Bool("matcher.authentic", res.Authentic))
	m.logger.DebugContext(ctx, "claim compared",
		"given_names", res.Fields.GivenNames,
		"first_surname", res.Fields.FirstSurname,
		"second_surname", res.Fields.SecondSurname,
	)
	return res, nil
}

// compare evaluates every field so the detail is complete even when an
// earlier field already failed.
func compare(record models.Record, name Name) FieldMatch {
	return FieldMatch{
		Found:         true,
		GivenNames:    record.GivenNames == name.GivenNames,
		FirstSurname:  record.FirstSurname == name.FirstSurname,
		SecondSurname: record.SecondSurname == name.SecondSurname,
	}
}
