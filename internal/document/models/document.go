package models

import (
	"sort"
	"time"

	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
)

// MaxTextLength bounds the raw text accepted for one document.
const MaxTextLength = 1 << 20

// Document is the aggregate root for one regulatory document of a shipment.
//
// Invariants:
//   - OrganizationID equals the owning shipment's and never changes
//   - State only moves along lifecycle table edges, one step at a time
//   - Version increases by one on every persisted change
//   - Issues is the snapshot taken when the document last reached VALIDATED
//     (or the format issues while it waits in UPLOADED)
//   - Documents are archived, never deleted
type Document struct {
	ID             id.DocumentID      `json:"id"`
	OrganizationID id.OrganizationID  `json:"organization_id"`
	ShipmentID     id.ShipmentID      `json:"shipment_id"`
	Type           id.DocumentType    `json:"type"`
	State          lifecycle.State    `json:"state"`
	Version        int                `json:"version"`
	RawText        string             `json:"-"`
	Fields         *extraction.Fields `json:"fields,omitempty"`
	Confidence     *float64           `json:"confidence,omitempty"`
	Issues         Issues             `json:"issues,omitempty"`
	Suggestion     *Suggestion        `json:"suggestion,omitempty"`
	UploadedBy     id.ActorID         `json:"uploaded_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	UploadedAt     *time.Time         `json:"uploaded_at,omitempty"`
	ValidatedAt    *time.Time         `json:"validated_at,omitempty"`
	ArchivedAt     *time.Time         `json:"archived_at,omitempty"`
}

func NewDocument(
	documentID id.DocumentID,
	orgID id.OrganizationID,
	shipmentID id.ShipmentID,
	docType id.DocumentType,
	now time.Time,
) (*Document, error) {
	if documentID.IsNil() || orgID.IsNil() || shipmentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document, organization and shipment ids are required")
	}
	if !docType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid document type")
	}
	return &Document{
		ID:             documentID,
		OrganizationID: orgID,
		ShipmentID:     shipmentID,
		Type:           docType,
		State:          lifecycle.StateDraft,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// HasText reports whether text has been attached.
func (d *Document) HasText() bool {
	return d.Fields != nil
}

// SatisfiesRequirement reports whether the document counts toward its type's
// presence requirement.
func (d *Document) SatisfiesRequirement() bool {
	return d.State.SatisfiesRequirement()
}

// IsExpired reports whether the document's declared validity ended before
// asOf. The validity date is inclusive.
func (d *Document) IsExpired(asOf time.Time) bool {
	if d.Fields == nil || d.Fields.ValidUntil == nil {
		return false
	}
	return !asOf.Before(d.Fields.ValidUntil.AddDate(0, 0, 1))
}

// CanTransition checks a single-step move to the given state by role.
func (d *Document) CanTransition(role lifecycle.Role, to lifecycle.State, facts lifecycle.Facts) error {
	return lifecycle.Check(role, d.State, to, facts)
}

// ApplyTransition moves the document to state to. Call CanTransition first.
func (d *Document) ApplyTransition(to lifecycle.State, now time.Time) {
	d.State = to
	d.Version++
	d.UpdatedAt = now
	switch to {
	case lifecycle.StateValidated:
		d.ValidatedAt = &now
	case lifecycle.StateArchived:
		d.ArchivedAt = &now
	}
}

// ApplyText records attached text and what was parsed from it. A container
// extraction at or above threshold opens a pending suggestion.
func (d *Document) ApplyText(text string, fields extraction.Fields, actor id.ActorID, threshold float64, now time.Time) {
	d.RawText = text
	d.Fields = &fields
	d.UploadedBy = actor
	d.UploadedAt = &now
	d.Version++
	d.UpdatedAt = now
	d.Confidence = nil
	d.Suggestion = nil
	if d.Type.IsExtractable() {
		conf := fields.ContainerConfidence
		d.Confidence = &conf
		if fields.HasContainer() && conf >= threshold {
			d.Suggestion = &Suggestion{
				ContainerID: fields.ContainerID,
				Confidence:  conf,
				Status:      SuggestionPending,
			}
		}
	}
}

// SnapshotIssues stores the issues implicating this document, plus the
// shipment-level issues that implicate no document.
func (d *Document) SnapshotIssues(all Issues) {
	var out Issues
	for _, i := range all {
		if len(i.DocumentIDs) == 0 || i.Implicates(d.ID) {
			out = append(out, i)
		}
	}
	d.Issues = out
}

// CanDecideSuggestion checks that a pending suggestion exists and the
// document is not archived.
func (d *Document) CanDecideSuggestion() error {
	if d.State == lifecycle.StateArchived {
		return dErrors.New(dErrors.CodeInvariantViolation, "document is archived")
	}
	if d.Suggestion == nil {
		return dErrors.New(dErrors.CodeNotFound, "document has no container suggestion")
	}
	if d.Suggestion.Status != SuggestionPending {
		return dErrors.New(dErrors.CodeConflict, "suggestion already "+string(d.Suggestion.Status))
	}
	return nil
}

// ApplySuggestionDecision records the decision. Call CanDecideSuggestion first.
func (d *Document) ApplySuggestionDecision(accept bool, actor id.ActorID, now time.Time) {
	d.Suggestion.Status = SuggestionDismissed
	if accept {
		d.Suggestion.Status = SuggestionAccepted
	}
	d.Suggestion.DecidedBy = actor
	d.Suggestion.DecidedAt = &now
	d.Version++
	d.UpdatedAt = now
}

// Clone returns a deep copy safe to mutate without affecting d.
func (d *Document) Clone() *Document {
	c := *d
	if d.Fields != nil {
		f := *d.Fields
		c.Fields = &f
	}
	if d.Confidence != nil {
		v := *d.Confidence
		c.Confidence = &v
	}
	if d.Suggestion != nil {
		s := *d.Suggestion
		c.Suggestion = &s
	}
	c.Issues = append(Issues(nil), d.Issues...)
	return &c
}

// SortDocuments orders documents by creation time, then id. Validation and
// aggregation iterate in this order so their output is stable.
func SortDocuments(docs []*Document) []*Document {
	out := append([]*Document(nil), docs...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
