// Package extraction parses already-extracted document text into structured
// candidate fields. It never performs OCR and never fails: a document with no
// recognizable value yields an empty result with zero confidence.
package extraction

import (
	"regexp"
	"strings"
)

// SuggestionThreshold is the confidence at or above which an extracted
// container is offered to a person as an accept/dismiss suggestion.
const SuggestionThreshold = 0.85

const (
	checkDigitBonus       = 0.05
	unlabeledConfidence   = 0.60
	unlabeledCheckBonus   = 0.10
	placeholderConfidence = 0.05

	// labelWindow bounds how far after a label the value may start on the same line.
	labelWindow = 24
)

type labelPattern struct {
	name       string
	re         *regexp.Regexp
	confidence float64
}

// labelPatterns are tried together; the earliest match in the document wins,
// so their order only matters for the label name reported.
var labelPatterns = []labelPattern{
	{name: "container_no", re: regexp.MustCompile(`(?i)\bcontainer\s*(?:no\b\.?|number|nr\b\.?|#|id\b)?\s*(?:\(s\))?\s*[:#.]?`), confidence: 0.92},
	{name: "equipment_no", re: regexp.MustCompile(`(?i)\bequipment\s*(?:no\b\.?|number|nr\b\.?|#|id\b)\s*[:#.]?`), confidence: 0.91},
	{name: "unit_no", re: regexp.MustCompile(`(?i)\bunit\s*(?:no\b\.?|number|nr\b\.?|#|id\b)\s*[:#.]?`), confidence: 0.90},
	{name: "cntr_no", re: regexp.MustCompile(`(?i)\bcntr\s*(?:no\b\.?|#)?\s*[:#.]?`), confidence: 0.90},
}

var candidatePattern = regexp.MustCompile(`[A-Za-z]{4}(?:[ \t]*[-–]?[ \t]*[0-9]){7}`)

// ContainerResult is the outcome of container extraction.
type ContainerResult struct {
	// ContainerID is the normalized identifier, empty when none was found.
	ContainerID string `json:"container_id,omitempty"`
	// Confidence is in [0,1].
	Confidence float64 `json:"confidence"`
	// Label names the label pattern the value was anchored to, empty when unlabeled.
	Label string `json:"label,omitempty"`
	// Raw is the matched text before normalization.
	Raw string `json:"raw,omitempty"`
	// Offset is the byte offset of Raw in the normalized text.
	Offset          int  `json:"offset"`
	CheckDigitValid bool `json:"check_digit_valid"`
	// Placeholder holds a provisional identifier detected when no real one was found.
	Placeholder string `json:"placeholder,omitempty"`
}

// Found reports whether a shape-valid container was extracted.
func (r ContainerResult) Found() bool {
	return r.ContainerID != ""
}

// Suggestible reports whether the result should be surfaced as an
// accept/dismiss suggestion at the given threshold.
func (r ContainerResult) Suggestible(threshold float64) bool {
	return r.Found() && r.Confidence >= threshold
}

// ExtractContainer finds the container identifier in bill-of-lading text.
//
// Label-anchored values take precedence over bare identifiers; within each
// tier the first occurrence in document order wins, later ones being treated
// as repeats. When only a placeholder is present the result carries it with a
// near-zero confidence and no identifier.
func ExtractContainer(text string) ContainerResult {
	s := NormalizeText(text)

	if r, ok := firstLabeled(s); ok {
		return r
	}
	if r, ok := firstBare(s); ok {
		return r
	}
	if p, ok := findPlaceholder(s); ok {
		return ContainerResult{Placeholder: strings.TrimSpace(p), Confidence: placeholderConfidence}
	}
	return ContainerResult{}
}

func firstLabeled(s string) (ContainerResult, bool) {
	best := ContainerResult{Offset: -1}
	for _, lp := range labelPatterns {
		for _, loc := range lp.re.FindAllStringIndex(s, -1) {
			start, end, ok := candidateAfter(s, loc[1])
			if !ok {
				continue
			}
			if best.Offset >= 0 && start >= best.Offset {
				break
			}
			id := NormalizeContainerID(s[start:end])
			conf := lp.confidence
			check := ValidCheckDigit(id)
			if check {
				conf += checkDigitBonus
			}
			best = ContainerResult{
				ContainerID:     id,
				Confidence:      round2(conf),
				Label:           lp.name,
				Raw:             s[start:end],
				Offset:          start,
				CheckDigitValid: check,
			}
			break
		}
	}
	return best, best.Offset >= 0
}

// candidateAfter looks for a container value following a label ending at pos:
// on the same line within labelWindow, or at the start of the next line when
// the label ends its line (tabular layouts).
func candidateAfter(s string, pos int) (int, int, bool) {
	lineEnd := strings.IndexByte(s[pos:], '\n')
	line := s[pos:]
	if lineEnd >= 0 {
		line = s[pos : pos+lineEnd]
	}

	if strings.TrimSpace(line) == "" && lineEnd >= 0 {
		next := pos + lineEnd + 1
		rest := s[next:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		trimmed := strings.TrimLeft(rest, " \t")
		lead := len(rest) - len(trimmed)
		if loc := candidatePattern.FindStringIndex(trimmed); loc != nil && loc[0] == 0 {
			start, end := next+lead, next+lead+loc[1]
			if bounded(s, start, end) {
				return start, end, true
			}
		}
		return 0, 0, false
	}

	for _, loc := range candidatePattern.FindAllStringIndex(line, -1) {
		if loc[0] > labelWindow {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if bounded(s, start, end) {
			return start, end, true
		}
	}
	return 0, 0, false
}

func firstBare(s string) (ContainerResult, bool) {
	for _, loc := range candidatePattern.FindAllStringIndex(s, -1) {
		if !bounded(s, loc[0], loc[1]) {
			continue
		}
		id := NormalizeContainerID(s[loc[0]:loc[1]])
		conf := unlabeledConfidence
		check := ValidCheckDigit(id)
		if check {
			conf += unlabeledCheckBonus
		}
		return ContainerResult{
			ContainerID:     id,
			Confidence:      round2(conf),
			Raw:             s[loc[0]:loc[1]],
			Offset:          loc[0],
			CheckDigitValid: check,
		}, true
	}
	return ContainerResult{}, false
}

// bounded rejects candidates glued to surrounding letters or digits, such as
// the tail of a longer reference number.
func bounded(s string, start, end int) bool {
	if start > 0 && isAlnum(s[start-1]) {
		return false
	}
	if end < len(s) && isAlnum(s[end]) {
		return false
	}
	return ValidContainerShape(NormalizeContainerID(s[start:end]))
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
