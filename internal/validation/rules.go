package validation

import (
	"fmt"
	"math"

	"exportdocs/internal/compliance"
	docmodels "exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	shipmodels "exportdocs/internal/shipment/models"
	id "exportdocs/pkg/domain"
	pstrings "exportdocs/pkg/platform/strings"
)

const (
	RulePresence               = shipmodels.PresenceRuleID
	RuleCommodityUnclassified  = "COMMODITY_UNCLASSIFIED"
	RuleCommodityConsistency   = "COMMODITY_CONSISTENCY"
	RuleWeightTolerance        = "WEIGHT_TOLERANCE"
	RuleContainerConsistency   = "CONTAINER_CONSISTENCY"
	RulePlaceholderContainer   = "PLACEHOLDER_CONTAINER"
	RuleContainerLowConfidence = "CONTAINER_LOW_CONFIDENCE"
	RuleTypeSpecificField      = "TYPE_SPECIFIC_FIELD"
	RuleDocumentExpired        = "DOCUMENT_EXPIRED"
)

// Rule is one registry record. Check returns issues without RuleID set; the
// validator stamps it.
type Rule struct {
	ID          string
	Description string
	Check       func(in *Input) []docmodels.ValidationIssue
}

// DefaultRules returns the registry in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{ID: RulePresence, Description: "every required document type has an approved document", Check: checkPresence},
		{ID: RuleCommodityUnclassified, Description: "commodity code matches a classification prefix", Check: checkClassified},
		{ID: RuleCommodityConsistency, Description: "documents agree with the shipment commodity code", Check: checkCommodityConsistency},
		{ID: RuleWeightTolerance, Description: "weights agree across shipment and documents", Check: checkWeights},
		{ID: RuleContainerConsistency, Description: "container identifiers agree across shipment and documents", Check: checkContainers},
		{ID: RulePlaceholderContainer, Description: "shipment container is not a placeholder", Check: checkPlaceholder},
		{ID: RuleContainerLowConfidence, Description: "bill of lading container was extracted reliably", Check: checkExtractionConfidence},
		{ID: RuleTypeSpecificField, Description: "documents carry the fields their type demands", Check: checkTypeFields},
		{ID: RuleDocumentExpired, Description: "documents are within their declared validity", Check: checkExpiry},
	}
}

func errorIssue(msg string, docs ...id.DocumentID) docmodels.ValidationIssue {
	return docmodels.ValidationIssue{Severity: docmodels.SeverityError, Message: msg, DocumentIDs: docs}
}

func warningIssue(msg string, docs ...id.DocumentID) docmodels.ValidationIssue {
	return docmodels.ValidationIssue{Severity: docmodels.SeverityWarning, Message: msg, DocumentIDs: docs}
}

// withText yields documents whose text has been parsed.
func withText(docs []*docmodels.Document) []*docmodels.Document {
	var out []*docmodels.Document
	for _, d := range docs {
		if d.HasText() {
			out = append(out, d)
		}
	}
	return out
}

func checkPresence(in *Input) []docmodels.ValidationIssue {
	var out []docmodels.ValidationIssue
	for _, t := range shipmodels.MissingTypes(in.Requirement, in.Documents) {
		out = append(out, errorIssue(fmt.Sprintf("required document %s has no approved document", t)))
	}
	return out
}

func checkClassified(in *Input) []docmodels.ValidationIssue {
	if in.Requirement.Classified {
		return nil
	}
	return []docmodels.ValidationIssue{warningIssue(fmt.Sprintf(
		"commodity code %q matches no classification; baseline documents are required", in.Shipment.CommodityCode))}
}

func checkCommodityConsistency(in *Input) []docmodels.ValidationIssue {
	var out []docmodels.ValidationIssue
	ref := compliance.NormalizeCode(in.Shipment.CommodityCode)
	var refDoc *docmodels.Document

	for _, d := range withText(in.Documents) {
		code := d.Fields.HSCode
		if code == "" {
			continue
		}
		if ref == "" {
			ref, refDoc = code, d
			continue
		}
		if compliance.CodesAgree(ref, code) {
			continue
		}
		if refDoc == nil {
			out = append(out, errorIssue(fmt.Sprintf(
				"%s declares commodity code %s but the shipment declares %s", d.Type, code, ref), d.ID))
		} else {
			out = append(out, errorIssue(fmt.Sprintf(
				"%s declares commodity code %s but %s declares %s", d.Type, code, refDoc.Type, ref), refDoc.ID, d.ID))
		}
	}
	return out
}

type weightSource struct {
	q     extraction.Quantity
	doc   *docmodels.Document
	label string
}

func (w weightSource) ids(other *docmodels.Document) []id.DocumentID {
	var out []id.DocumentID
	if w.doc != nil {
		out = append(out, w.doc.ID)
	}
	return append(out, other.ID)
}

func checkWeights(in *Input) []docmodels.ValidationIssue {
	var ref *weightSource
	if in.Shipment.DeclaredWeight != nil {
		ref = &weightSource{q: *in.Shipment.DeclaredWeight, label: "shipment"}
	}
	out := compareWeights(in, ref, "gross", func(f *extraction.Fields) *extraction.Quantity { return f.GrossWeight })
	return append(out, compareWeights(in, nil, "net", func(f *extraction.Fields) *extraction.Quantity { return f.NetWeight })...)
}

func compareWeights(in *Input, ref *weightSource, kind string, pick func(*extraction.Fields) *extraction.Quantity) []docmodels.ValidationIssue {
	var out []docmodels.ValidationIssue
	for _, d := range withText(in.Documents) {
		q := pick(d.Fields)
		if q == nil {
			continue
		}
		if ref == nil {
			ref = &weightSource{q: *q, doc: d, label: string(d.Type)}
			continue
		}
		sev, detail, ok := compareQuantities(ref.q, *q, in.Config.WeightTolerance)
		if !ok {
			continue
		}
		msg := fmt.Sprintf("%s weight %s on %s vs %s on %s: %s", kind, q, d.Type, ref.q, ref.label, detail)
		if sev == docmodels.SeverityError {
			out = append(out, errorIssue(msg, ref.ids(d)...))
		} else {
			out = append(out, warningIssue(msg, ref.ids(d)...))
		}
	}
	return out
}

// compareQuantities grades the deviation between a and b relative to the
// smaller value. It reports false when they agree.
func compareQuantities(a, b extraction.Quantity, tolerance float64) (docmodels.Severity, string, bool) {
	if a.Dimension() != b.Dimension() || a.Dimension() == extraction.DimensionUnknown {
		return docmodels.SeverityError, "contradictory units", true
	}
	x, y := a.Value, b.Value
	if a.Dimension() == extraction.DimensionMass {
		x, _ = a.Kilograms()
		y, _ = b.Kilograms()
	}
	lo, hi := math.Min(x, y), math.Max(x, y)
	if hi == 0 {
		return "", "", false
	}
	if lo <= 0 {
		return docmodels.SeverityError, "one value is zero", true
	}
	dev := (hi - lo) / lo
	switch {
	case dev <= defaultNoiseFloor:
		return "", "", false
	case dev <= tolerance:
		return docmodels.SeverityWarning, fmt.Sprintf("deviation %.1f%% within tolerance %.1f%%", dev*100, tolerance*100), true
	default:
		return docmodels.SeverityError, fmt.Sprintf("deviation %.1f%% exceeds tolerance %.1f%%", dev*100, tolerance*100), true
	}
}

func checkContainers(in *Input) []docmodels.ValidationIssue {
	var out []docmodels.ValidationIssue
	ref := ""
	if c := in.Shipment.DeclaredContainer; c != "" && !extraction.IsPlaceholder(c) {
		ref = c
	}
	var refDoc *docmodels.Document

	for _, d := range withText(in.Documents) {
		c := d.Fields.ContainerID
		if c == "" || extraction.IsPlaceholder(c) {
			continue
		}
		if ref == "" {
			ref, refDoc = c, d
			continue
		}
		if c == ref {
			continue
		}
		if refDoc == nil {
			out = append(out, errorIssue(fmt.Sprintf(
				"container %s on %s differs from %s declared on the shipment", c, d.Type, ref), d.ID))
		} else {
			out = append(out, errorIssue(fmt.Sprintf(
				"container %s on %s differs from %s on %s", c, d.Type, ref, refDoc.Type), refDoc.ID, d.ID))
		}
	}
	return out
}

func checkPlaceholder(in *Input) []docmodels.ValidationIssue {
	if !in.Shipment.HasPlaceholderContainer() {
		return nil
	}
	return []docmodels.ValidationIssue{warningIssue(fmt.Sprintf(
		"shipment container %s is a placeholder", in.Shipment.DeclaredContainer))}
}

func checkExtractionConfidence(in *Input) []docmodels.ValidationIssue {
	var out []docmodels.ValidationIssue
	for _, d := range withText(in.Documents) {
		if !d.Type.IsExtractable() || d.State == lifecycle.StateArchived {
			continue
		}
		f := d.Fields
		switch {
		case f.Placeholder != "" && !f.HasContainer():
			out = append(out, warningIssue(fmt.Sprintf("%s names placeholder %s instead of a container", d.Type, f.Placeholder), d.ID))
		case !f.HasContainer():
			out = append(out, warningIssue(fmt.Sprintf("no container identifier found on %s", d.Type), d.ID))
		case f.ContainerConfidence < in.Config.SuggestionThreshold:
			out = append(out, warningIssue(fmt.Sprintf(
				"container %s on %s extracted with low confidence %.2f", f.ContainerID, d.Type, f.ContainerConfidence), d.ID))
		}
	}
	return out
}

func checkTypeFields(in *Input) []docmodels.ValidationIssue {
	var out []docmodels.ValidationIssue
	for _, d := range withText(in.Documents) {
		for _, fr := range in.Requirement.FieldsFor(d.Type) {
			value := fieldValue(d.Fields, fr.Field)
			switch {
			case value == "":
				out = append(out, errorIssue(fmt.Sprintf("%s is missing %s", d.Type, fr.Field), d.ID))
			case len(fr.OneOf) > 0 && !pstrings.ContainsFold(value, fr.OneOf...):
				out = append(out, errorIssue(fmt.Sprintf("%s %s %q is not an accepted value", d.Type, fr.Field, value), d.ID))
			}
		}
	}
	return out
}

func fieldValue(f *extraction.Fields, field compliance.Field) string {
	switch field {
	case compliance.FieldIssuingAuthority:
		return f.IssuingAuthority
	case compliance.FieldReferenceNumber:
		return f.ReferenceNumber
	default:
		return ""
	}
}

func checkExpiry(in *Input) []docmodels.ValidationIssue {
	var out []docmodels.ValidationIssue
	for _, d := range withText(in.Documents) {
		if d.State == lifecycle.StateArchived || !d.IsExpired(in.AsOf) {
			continue
		}
		msg := fmt.Sprintf("%s expired on %s", d.Type, d.Fields.ValidUntil.Format("2006-01-02"))
		if in.Requirement.Requires(d.Type) {
			out = append(out, errorIssue(msg, d.ID))
		} else {
			out = append(out, warningIssue(msg, d.ID))
		}
	}
	return out
}
