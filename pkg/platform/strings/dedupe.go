// Package strings provides small string-list helpers shared by loaders and
// rule code.
package strings

import (
	"strings"
)

// Dedupe removes repeated values, keeping the first occurrence of each.
func Dedupe[T comparable](values []T) []T {
	if len(values) == 0 {
		return values
	}
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// NormalizeList lower-cases and trims every element, drops blanks and
// duplicates. Order is preserved.
//
//	NormalizeList([]string{" Bill_Of_Lading ", "", "bill_of_lading"})
//	// []string{"bill_of_lading"}
func NormalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.ToLower(strings.TrimSpace(v)); s != "" {
			out = append(out, s)
		}
	}
	return Dedupe(out)
}

// ContainsFold reports whether any of needles occurs in haystack, ignoring case.
func ContainsFold(haystack string, needles ...string) bool {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" && strings.Contains(h, n) {
			return true
		}
	}
	return false
}
