// Package strings provides string slice helpers for request normalization.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  a.png ", "b.png", "a.png", "", "  "})
//	// Returns: []string{"a.png", "b.png"}
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

// DedupeAndTrimPtr applies DedupeAndTrim to an optional slice pointer.
// Returns nil if input is nil, otherwise returns a pointer to the deduplicated slice.
func DedupeAndTrimPtr(values *[]string) *[]string {
	if values == nil {
		return nil
	}
	result := DedupeAndTrim(*values)
	return &result
}
