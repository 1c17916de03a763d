package models

import (
	"strings"
	"time"

	id "idcheck/pkg/domain"
)

// Record is one row of the electoral roll.
type Record struct {
	ID            id.CitizenID
	GivenNames    string
	FirstSurname  string
	SecondSurname string
}

// Trimmed returns a copy with whitespace stripped from every name field.
func (r Record) Trimmed() Record {
	r.GivenNames = strings.TrimSpace(r.GivenNames)
	r.FirstSurname = strings.TrimSpace(r.FirstSurname)
	r.SecondSurname = strings.TrimSpace(r.SecondSurname)
	return r
}

// LoadStats summarizes a single load of the roll.
type LoadStats struct {
	Source     string
	Records    int
	Duplicates int
	Rejected   int
	Duration   time.Duration
}
