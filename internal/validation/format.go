package validation

import (
	"fmt"
	"strings"

	docmodels "exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	id "exportdocs/pkg/domain"
)

// RuleFormat tags issues raised by the upload format check.
const RuleFormat = "FORMAT_CHECK"

// CheckFormat is the gate between UPLOADED and VALIDATED: the text must be
// non-empty and carry the fields its document type cannot do without.
// An empty result means the check passed.
func CheckFormat(docID id.DocumentID, docType id.DocumentType, text string, fields extraction.Fields) docmodels.Issues {
	fail := func(msg string) docmodels.ValidationIssue {
		return docmodels.ValidationIssue{RuleID: RuleFormat, Severity: docmodels.SeverityError, Message: msg, DocumentIDs: []id.DocumentID{docID}}
	}

	if strings.TrimSpace(text) == "" {
		return docmodels.Issues{fail("document text is empty")}
	}

	var out docmodels.Issues
	switch docType {
	case id.DocumentBillOfLading:
		if !fields.HasContainer() && fields.Placeholder == "" {
			out = append(out, fail("bill of lading names no container"))
		}
	case id.DocumentDueDiligence:
		if fields.ReferenceNumber == "" {
			out = append(out, fail("due diligence statement has no reference number"))
		}
	case id.DocumentCommercialInvoice, id.DocumentPackingList:
		if fields.GrossWeight == nil && fields.NetWeight == nil {
			out = append(out, fail(fmt.Sprintf("%s states no weight", docType)))
		}
	}
	return out
}

// CheckFormat runs the format check for doc and records the outcome.
func (v *Validator) CheckFormat(doc *docmodels.Document) docmodels.Issues {
	var fields extraction.Fields
	if doc.Fields != nil {
		fields = *doc.Fields
	}
	issues := CheckFormat(doc.ID, doc.Type, doc.RawText, fields)
	v.metrics.IncrementFormatCheck(string(doc.Type), len(issues) == 0)
	return issues
}
