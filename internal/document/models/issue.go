package models

import (
	id "exportdocs/pkg/domain"
)

// Severity grades a validation issue. Only ERROR blocks compliance.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

func (s Severity) IsValid() bool {
	return s == SeverityError || s == SeverityWarning
}

// ValidationIssue is one finding of a validation pass. Issues are re-derived
// on every pass and never edited in place.
type ValidationIssue struct {
	RuleID      string          `json:"rule_id"`
	Severity    Severity        `json:"severity"`
	Message     string          `json:"message"`
	DocumentIDs []id.DocumentID `json:"document_ids,omitempty"`
}

// Implicates reports whether the issue names the given document.
func (i ValidationIssue) Implicates(docID id.DocumentID) bool {
	for _, d := range i.DocumentIDs {
		if d == docID {
			return true
		}
	}
	return false
}

// Issues is an ordered issue list.
type Issues []ValidationIssue

func (is Issues) ErrorCount() int {
	return is.count(SeverityError)
}

func (is Issues) WarningCount() int {
	return is.count(SeverityWarning)
}

func (is Issues) count(sev Severity) int {
	n := 0
	for _, i := range is {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

// BlockingFor counts ERROR issues that implicate docID.
func (is Issues) BlockingFor(docID id.DocumentID) int {
	n := 0
	for _, i := range is {
		if i.Severity == SeverityError && i.Implicates(docID) {
			n++
		}
	}
	return n
}

// ForDocument returns the issues implicating docID, in order.
func (is Issues) ForDocument(docID id.DocumentID) Issues {
	var out Issues
	for _, i := range is {
		if i.Implicates(docID) {
			out = append(out, i)
		}
	}
	return out
}

// ByRule returns the issues raised by ruleID, in order.
func (is Issues) ByRule(ruleID string) Issues {
	var out Issues
	for _, i := range is {
		if i.RuleID == ruleID {
			out = append(out, i)
		}
	}
	return out
}
