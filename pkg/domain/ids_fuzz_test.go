//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseCaseID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseCaseID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE cases;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseCaseID(input)
		if err == nil {
			if id.IsNil() {
				t.Error("parsed a nil case id without error")
			}
			roundTrip, err2 := ParseCaseID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
		}
	})
}

// FuzzParsePersonnelCode checks that accepted codes are always 8 digits.
func FuzzParsePersonnelCode(f *testing.F) {
	f.Add("12345678")
	f.Add("1234567")
	f.Add("١٢٣٤٥٦٧٨")

	f.Fuzz(func(t *testing.T, input string) {
		code, err := ParsePersonnelCode(input)
		if err == nil && (len(code) != PersonnelCodeLength || !IsDigits(code)) {
			t.Errorf("accepted malformed personnel code %q", code)
		}
	})
}
