package extraction

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText folds compatibility forms (full-width digits, no-break spaces,
// ligatures) to their plain equivalents and strips invisible format characters
// such as zero-width spaces, which copy-pasted PDF text often carries.
func NormalizeText(text string) string {
	t := transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Cf)))
	out, _, err := transform.String(t, text)
	if err != nil {
		return norm.NFKC.String(text)
	}
	return out
}

var containerSeparators = strings.NewReplacer(" ", "", "\t", "", "-", "", "–", "", "—", "")

// NormalizeContainerID strips internal whitespace and dashes and upper-cases
// the owner code: "mrsu 345-2572" becomes "MRSU3452572".
func NormalizeContainerID(raw string) string {
	return strings.ToUpper(containerSeparators.Replace(strings.TrimSpace(NormalizeText(raw))))
}

var containerShape = regexp.MustCompile(`^[A-Z]{4}[0-9]{7}$`)

// ValidContainerShape reports whether id is exactly four letters followed by
// seven digits (ISO 6346 owner code, category, serial and check digit).
func ValidContainerShape(id string) bool {
	return containerShape.MatchString(id)
}

// ValidCheckDigit verifies the ISO 6346 check digit of a shape-valid id.
func ValidCheckDigit(id string) bool {
	if !ValidContainerShape(id) {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		sum += iso6346Value(id[i]) << uint(i)
	}
	return sum%11%10 == int(id[10]-'0')
}

// iso6346Value maps letters to 10..38 skipping multiples of eleven.
func iso6346Value(c byte) int {
	if c >= '0' && c <= '9' {
		return int(c - '0')
	}
	v := 10
	for l := byte('A'); l < c; l++ {
		v++
		if v%11 == 0 {
			v++
		}
	}
	return v
}
