package extraction

import (
	"regexp"
	"strings"
)

// PlaceholderInfix is the reserved token operators embed in provisional
// container identifiers (e.g. "BECKMANN-CNT-001") until the carrier assigns
// the real equipment number.
const PlaceholderInfix = "-CNT-"

var placeholderSeparators = strings.NewReplacer(" ", "-", "_", "-", ".", "-")

// IsPlaceholder reports whether identifier carries the reserved infix token.
func IsPlaceholder(identifier string) bool {
	s := strings.ToUpper(strings.TrimSpace(NormalizeText(identifier)))
	if s == "" {
		return false
	}
	s = placeholderSeparators.Replace(s)
	i := strings.Index(s, PlaceholderInfix)
	// infix: something must precede and follow the token
	return i > 0 && i+len(PlaceholderInfix) < len(s)
}

var placeholderToken = regexp.MustCompile(`(?i)[A-Z0-9]+[-_ .]CNT[-_ .][A-Z0-9]+`)

// findPlaceholder returns the first placeholder-looking token in text.
func findPlaceholder(text string) (string, bool) {
	for _, m := range placeholderToken.FindAllString(text, -1) {
		if IsPlaceholder(m) {
			return m, true
		}
	}
	return "", false
}
