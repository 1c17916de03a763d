package domain

import (
	"strconv"
	"strings"

	dErrors "idcheck/pkg/domain-errors"
)

// CitizenID is the numeric identifier of a person in the electoral roll
// (national ID number).
type CitizenID uint64

// ParseCitizenID parses a base-10, non-negative identifier after trimming
// surrounding whitespace. Signs, separators and non-digits are rejected.
func ParseCitizenID(s string) (CitizenID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "citizen id is required")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "citizen id must be a non-negative integer")
	}
	return CitizenID(n), nil
}

// String renders the identifier without padding.
func (c CitizenID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}
