package handler

import (
	"mime"
	"strings"

	"idcheck/internal/verification"
	dErrors "idcheck/pkg/domain-errors"
)

const (
	maxClaimedIDLen   = 64
	maxClaimedNameLen = 256
)

// VerifyClaimRequest is the HTTP request body for POST /verifications.
type VerifyClaimRequest struct {
	ClaimedID       string `json:"claimed_id"`
	ClaimedFullName string `json:"claimed_full_name"`
}

// Validate bounds field sizes. Empty values are allowed through: the
// matcher answers them with a non-match.
func (r *VerifyClaimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.ClaimedID) > maxClaimedIDLen {
		return dErrors.Newf(dErrors.CodeValidation, "claimed_id must be at most %d characters", maxClaimedIDLen)
	}
	if len(r.ClaimedFullName) > maxClaimedNameLen {
		return dErrors.Newf(dErrors.CodeValidation, "claimed_full_name must be at most %d characters", maxClaimedNameLen)
	}
	return nil
}

// ToClaim converts the request to the service input.
func (r *VerifyClaimRequest) ToClaim() verification.ClaimedIdentity {
	return verification.ClaimedIdentity{
		ClaimedID:       r.ClaimedID,
		ClaimedFullName: r.ClaimedFullName,
	}
}

func isImageContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
