package domain

import (
	"strings"

	dErrors "transferdesk/pkg/domain-errors"
)

const (
	PersonnelCodeLength = 8
	DistrictCodeLength  = 4
	NationalIDMinLength = 8
	NationalIDMaxLength = 10
)

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParsePersonnelCode accepts exactly eight digits.
func ParsePersonnelCode(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) != PersonnelCodeLength || !IsDigits(s) {
		return "", dErrors.New(dErrors.CodeValidation, "personnel code must be exactly 8 digits")
	}
	return s, nil
}

// ParseNationalID accepts an empty value (absent) or 8 to 10 digits.
func ParseNationalID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if len(s) < NationalIDMinLength || len(s) > NationalIDMaxLength || !IsDigits(s) {
		return "", dErrors.New(dErrors.CodeValidation, "national id must be 8 to 10 digits")
	}
	return s, nil
}

// ParseDistrictCode accepts exactly four digits. field names the input in the message.
func ParseDistrictCode(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) != DistrictCodeLength || !IsDigits(s) {
		return "", dErrors.Newf(dErrors.CodeValidation, "%s must be a 4-digit district code", field)
	}
	return s, nil
}
