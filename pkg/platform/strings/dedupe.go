// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
	"unicode"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  1001 ", "1002", "1001", "", "  "})
//	// Returns: []string{"1001", "1002"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SplitCodes splits a code list delimited by commas, plus signs or whitespace,
// as used for approved clause codes ("12+14,7"), and dedupes the result. A plus
// sign that arrived URL-decoded as a space still separates codes.
//
// Example:
//
//	SplitCodes("12+14, 7,12")
//	// Returns: []string{"12", "14", "7"}
func SplitCodes(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '+' || unicode.IsSpace(r)
	})
	return DedupeAndTrim(parts)
}

// ContainsAny reports whether any value in needles is present in haystack.
func ContainsAny(haystack, needles []string) bool {
	if len(haystack) == 0 || len(needles) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(haystack))
	for _, h := range haystack {
		set[h] = struct{}{}
	}
	for _, n := range needles {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}
