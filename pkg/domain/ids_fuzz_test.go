package domain

import (
	"testing"
)

// FuzzParseCitizenID checks that parsing never panics and that every
// accepted value survives a round trip through String.
func FuzzParseCitizenID(f *testing.F) {
	f.Add("")
	f.Add("123456789")
	f.Add("18446744073709551615")
	f.Add("18446744073709551616")
	f.Add("'; DROP TABLE electoral_roll;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseCitizenID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseCitizenID(id.String())
		if err != nil {
			t.Fatalf("valid id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Fatalf("round-trip changed id: %d != %d", roundTrip, id)
		}
	})
}
