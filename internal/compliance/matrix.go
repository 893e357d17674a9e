// Package compliance answers which documents a commodity classification
// requires and whether it falls under the due-diligence regime.
//
// The requirement table is reference data: an embedded default, optionally
// replaced by a YAML file at startup. Lookups are pure and safe for
// concurrent use once a Matrix is built.
package compliance

import (
	"sort"
	"strings"

	id "exportdocs/pkg/domain"
)

// hardExcluded are classification prefixes that never require due diligence.
// The override runs before the table lookup and cannot be undone by table
// content or by anything a document declares.
var hardExcluded = []string{"0402", "0406"}

// HardExcludedPrefixes returns the prefixes permanently outside the
// due-diligence regime.
func HardExcludedPrefixes() []string {
	return append([]string(nil), hardExcluded...)
}

// Field names a type-specific document field that rules can require.
type Field string

const (
	FieldIssuingAuthority Field = "issuing_authority"
	FieldReferenceNumber  Field = "reference_number"
)

func (f Field) IsValid() bool {
	return f == FieldIssuingAuthority || f == FieldReferenceNumber
}

// FieldRequirement demands that documents of a type carry a field. When OneOf
// is set the value must contain one of its entries, compared case-insensitively.
type FieldRequirement struct {
	DocumentType id.DocumentType
	Field        Field
	OneOf        []string
}

// Requirement is the answer for one commodity code.
type Requirement struct {
	// Code is the normalized code that was looked up.
	Code string
	// Prefix is the matched table prefix, empty when unclassified.
	Prefix      string
	Description string
	// Classified is false when no table prefix matched.
	Classified           bool
	DueDiligenceRequired bool
	// DueDiligenceExcluded marks codes under a hard exclusion.
	DueDiligenceExcluded bool
	RequiredDocuments    []id.DocumentType
	Fields               []FieldRequirement
}

// Requires reports whether t is one of the required document types.
func (r Requirement) Requires(t id.DocumentType) bool {
	for _, rt := range r.RequiredDocuments {
		if rt == t {
			return true
		}
	}
	return false
}

// FieldsFor returns the field requirements for documents of type t.
func (r Requirement) FieldsFor(t id.DocumentType) []FieldRequirement {
	var out []FieldRequirement
	for _, f := range r.Fields {
		if f.DocumentType == t {
			out = append(out, f)
		}
	}
	return out
}

type entry struct {
	prefix       string
	description  string
	dueDiligence bool
	documents    []id.DocumentType
	fields       []FieldRequirement
}

// Matrix is an immutable prefix table.
type Matrix struct {
	entries  map[string]entry
	baseline []id.DocumentType
	maxLen   int
}

// RequirementsFor returns the requirement for a commodity code using the
// longest matching prefix. Unknown or empty codes return the baseline
// document set with Classified false.
func (m *Matrix) RequirementsFor(code string) Requirement {
	code = NormalizeCode(code)
	req := Requirement{Code: code, DueDiligenceExcluded: IsHardExcluded(code)}

	e, ok := m.lookup(code)
	if !ok {
		req.RequiredDocuments = cloneTypes(m.baseline)
		return req
	}

	req.Prefix = e.prefix
	req.Description = e.description
	req.Classified = true
	req.DueDiligenceRequired = e.dueDiligence && !req.DueDiligenceExcluded
	req.RequiredDocuments = cloneTypes(e.documents)
	req.Fields = append([]FieldRequirement(nil), e.fields...)

	if req.DueDiligenceExcluded {
		req.RequiredDocuments = withoutType(req.RequiredDocuments, id.DocumentDueDiligence)
		req.Fields = withoutFieldsFor(req.Fields, id.DocumentDueDiligence)
	}
	return req
}

func (m *Matrix) lookup(code string) (entry, bool) {
	n := len(code)
	if n > m.maxLen {
		n = m.maxLen
	}
	for l := n; l >= minPrefixLen; l-- {
		if e, ok := m.entries[code[:l]]; ok {
			return e, true
		}
	}
	return entry{}, false
}

// Prefixes lists the table prefixes in ascending order.
func (m *Matrix) Prefixes() []string {
	out := make([]string, 0, len(m.entries))
	for p := range m.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Baseline returns the document set required of unclassified codes.
func (m *Matrix) Baseline() []id.DocumentType {
	return cloneTypes(m.baseline)
}

// IsHardExcluded reports whether code falls under a permanent due-diligence
// exclusion.
func IsHardExcluded(code string) bool {
	code = NormalizeCode(code)
	for _, p := range hardExcluded {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

// NormalizeCode keeps only the digits of a classification code:
// "0901.21 00" becomes "09012100".
func NormalizeCode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CodesAgree reports whether two classification codes describe the same
// goods at the precision both carry: one must be a prefix of the other.
// Empty codes never agree.
func CodesAgree(a, b string) bool {
	a, b = NormalizeCode(a), NormalizeCode(b)
	if a == "" || b == "" {
		return false
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	return strings.HasPrefix(b, a)
}

func cloneTypes(in []id.DocumentType) []id.DocumentType {
	return append([]id.DocumentType(nil), in...)
}

func withoutType(in []id.DocumentType, t id.DocumentType) []id.DocumentType {
	out := in[:0]
	for _, v := range in {
		if v != t {
			out = append(out, v)
		}
	}
	return out
}

func withoutFieldsFor(in []FieldRequirement, t id.DocumentType) []FieldRequirement {
	out := in[:0]
	for _, f := range in {
		if f.DocumentType != t {
			out = append(out, f)
		}
	}
	return out
}
