package models

import (
	"exportdocs/internal/compliance"
	docmodels "exportdocs/internal/document/models"
	"exportdocs/internal/lifecycle"
	id "exportdocs/pkg/domain"
)

// PresenceRuleID is the rule that reports required document types lacking
// an approved document. Its issues alone leave a shipment pending rather
// than non-compliant.
const PresenceRuleID = "REQUIRED_DOCUMENT_MISSING"

// Summary is the aggregated compliance picture of one shipment.
type Summary struct {
	Status       ComplianceStatus  `json:"status"`
	Required     []id.DocumentType `json:"required"`
	Satisfied    []id.DocumentType `json:"satisfied"`
	Missing      []id.DocumentType `json:"missing"`
	FailedDocs   []id.DocumentID   `json:"failed_documents,omitempty"`
	ErrorCount   int               `json:"error_count"`
	WarningCount int               `json:"warning_count"`
	DueDiligence bool              `json:"due_diligence_required"`
	Classified   bool              `json:"classified"`
}

// RequirementsSatisfied reports whether every required type has a COMPLIANCE_OK or
// LINKED document.
func (s Summary) RequirementsSatisfied() bool {
	return len(s.Missing) == 0
}

// SatisfiedTypes returns the document types that have at least one document
// counting toward presence.
func SatisfiedTypes(docs []*docmodels.Document) map[id.DocumentType]bool {
	out := make(map[id.DocumentType]bool)
	for _, d := range docs {
		if d.SatisfiesRequirement() {
			out[d.Type] = true
		}
	}
	return out
}

// MissingTypes lists required types with no satisfying document, in
// requirement order.
func MissingTypes(req compliance.Requirement, docs []*docmodels.Document) []id.DocumentType {
	satisfied := SatisfiedTypes(docs)
	var missing []id.DocumentType
	for _, t := range req.RequiredDocuments {
		if !satisfied[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

// Aggregate derives the shipment compliance status from its documents and
// the current validation issues.
//
// A shipment is compliant when every required type is satisfied and there
// are no ERROR issues. It is non-compliant when any document is in
// COMPLIANCE_FAILED or any ERROR other than a missing document is present.
// Otherwise it is pending.
func Aggregate(req compliance.Requirement, docs []*docmodels.Document, issues docmodels.Issues) Summary {
	s := Summary{
		Required:     append([]id.DocumentType(nil), req.RequiredDocuments...),
		Missing:      MissingTypes(req, docs),
		ErrorCount:   issues.ErrorCount(),
		WarningCount: issues.WarningCount(),
		DueDiligence: req.DueDiligenceRequired,
		Classified:   req.Classified,
	}
	satisfied := SatisfiedTypes(docs)
	for _, t := range req.RequiredDocuments {
		if satisfied[t] {
			s.Satisfied = append(s.Satisfied, t)
		}
	}
	for _, d := range docmodels.SortDocuments(docs) {
		if d.State == lifecycle.StateComplianceFailed {
			s.FailedDocs = append(s.FailedDocs, d.ID)
		}
	}

	blocking := false
	for _, i := range issues {
		if i.Severity == docmodels.SeverityError && i.RuleID != PresenceRuleID {
			blocking = true
			break
		}
	}

	switch {
	case s.ErrorCount == 0 && len(s.Missing) == 0:
		s.Status = StatusCompliant
	case blocking || len(s.FailedDocs) > 0:
		s.Status = StatusNonCompliant
	default:
		s.Status = StatusPending
	}
	return s
}
