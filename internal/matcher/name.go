package matcher

import (
	"strings"

	dErrors "idcheck/pkg/domain-errors"
)

// Name is a claimed full name split into the parts stored by the roll.
type Name struct {
	GivenNames    string
	FirstSurname  string
	SecondSurname string
}

// SplitFullName tokenizes on whitespace and assigns the last two tokens to the
// second and first surname; everything before them, joined by single spaces,
// is the given names. Compound or single surnames are not recognized.
func SplitFullName(fullName string) (Name, error) {
	tokens := strings.Fields(fullName)
	n := len(tokens)
	if n < 2 {
		return Name{}, dErrors.New(dErrors.CodeInvalidInput, "full name must contain at least two words")
	}
	return Name{
		GivenNames:    strings.Join(tokens[:n-2], " "),
		FirstSurname:  tokens[n-2],
		SecondSurname: tokens[n-1],
	}, nil
}
