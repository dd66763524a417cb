// Package strings normalises location identifiers for flight context
// construction.
package strings

import (
	"strings"
)

// NormalizeICAO trims and uppercases a location identifier.
func NormalizeICAO(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DedupeICAO normalises each identifier and drops blanks and repeats,
// keeping first-seen order.
//
//	DedupeICAO([]string{" lfpb", "LFPB", "", "egll "})
//	// Returns: []string{"LFPB", "EGLL"}
func DedupeICAO(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		code := NormalizeICAO(v)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		result = append(result, code)
	}
	return result
}
