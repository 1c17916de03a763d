package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idcheck/pkg/domain-errors"
)

func TestParseCitizenID(t *testing.T) {
	t.Run("accepts digits", func(t *testing.T) {
		id, err := ParseCitizenID("123456789")
		require.NoError(t, err)
		assert.Equal(t, CitizenID(123456789), id)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		id, err := ParseCitizenID("  1020304050\n")
		require.NoError(t, err)
		assert.Equal(t, CitizenID(1020304050), id)
	})

	t.Run("keeps leading zeros numerically", func(t *testing.T) {
		id, err := ParseCitizenID("000042")
		require.NoError(t, err)
		assert.Equal(t, "42", id.String())
	})
}

func TestParseCitizenID_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"letters", "not-a-number"},
		{"negative", "-12345"},
		{"explicit plus sign", "+12345"},
		{"thousands separators", "1.234.567"},
		{"inner whitespace", "1234 5678"},
		{"hex prefix", "0x1F"},
		{"overflow", strings.Repeat("9", 25)},
		{"null byte", "1234\x005678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCitizenID(tt.input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}
