package verification

import (
	"time"

	"idcheck/internal/document/imaging"
	"idcheck/internal/matcher"
)

// Source identifies how the claim reached the service.
type Source string

const (
	SourceClaim    Source = "claim"
	SourceDocument Source = "document"
)

// ClaimedIdentity is the raw (ID, full name) pair asserted by a document.
type ClaimedIdentity struct {
	ClaimedID       string
	ClaimedFullName string
}

// Layout locates the printed fields on a document scan.
type Layout struct {
	ID   imaging.Region `yaml:"id"`
	Name imaging.Region `yaml:"name"`
}

// DefaultLayout fits the front of a landscape ID card with the number above
// the full name in the left half.
func DefaultLayout() Layout {
	return Layout{
		ID:   imaging.Region{X: 0.05, Y: 0.22, W: 0.55, H: 0.12},
		Name: imaging.Region{X: 0.05, Y: 0.36, W: 0.60, H: 0.16},
	}
}

// Validate checks both regions.
func (l Layout) Validate() error {
	if err := l.ID.Validate(); err != nil {
		return err
	}
	return l.Name.Validate()
}

// Result is the authenticity decision for one claim.
type Result struct {
	Authentic       bool
	Source          Source
	ClaimedID       string
	ClaimedFullName string
	Fields          matcher.FieldMatch
	CheckedAt       time.Time
}
