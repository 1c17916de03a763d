package handler

import (
	"time"

	"idcheck/internal/matcher"
	"idcheck/internal/registry/models"
	"idcheck/internal/verification"
)

// VerifyResponse is returned by both verification endpoints.
type VerifyResponse struct {
	Authentic       bool               `json:"authentic"`
	Source          string             `json:"source"`
	ClaimedID       string             `json:"claimed_id"`
	ClaimedFullName string             `json:"claimed_full_name"`
	Fields          matcher.FieldMatch `json:"fields"`
	CheckedAt       time.Time          `json:"checked_at"`
}

// FromResult converts a verification result to an HTTP response.
func FromResult(result *verification.Result) *VerifyResponse {
	return &VerifyResponse{
		Authentic:       result.Authentic,
		Source:          string(result.Source),
		ClaimedID:       result.ClaimedID,
		ClaimedFullName: result.ClaimedFullName,
		Fields:          result.Fields,
		CheckedAt:       result.CheckedAt,
	}
}

// StatsResponse describes the loaded roll.
type StatsResponse struct {
	Source     string `json:"source"`
	Records    int    `json:"records"`
	Duplicates int    `json:"duplicates"`
	Rejected   int    `json:"rejected"`
	LoadMillis int64  `json:"load_ms"`
}

// FromStats converts load stats to an HTTP response.
func FromStats(stats models.LoadStats) *StatsResponse {
	return &StatsResponse{
		Source:     stats.Source,
		Records:    stats.Records,
		Duplicates: stats.Duplicates,
		Rejected:   stats.Rejected,
		LoadMillis: stats.Duration.Milliseconds(),
	}
}
