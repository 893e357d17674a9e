package handler

import (
	"time"

	"exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
)

// DocumentResponse is the HTTP representation of a document. Raw text is
// never echoed back.
type DocumentResponse struct {
	ID         string              `json:"id"`
	ShipmentID string              `json:"shipment_id"`
	Type       string              `json:"type"`
	State      string              `json:"state"`
	Version    int                 `json:"version"`
	NextStates []string            `json:"next_states"`
	Fields     *extraction.Fields  `json:"fields,omitempty"`
	Confidence *float64            `json:"confidence,omitempty"`
	Issues     []IssueResponse     `json:"issues"`
	Suggestion *SuggestionResponse `json:"suggestion,omitempty"`
	UploadedBy string              `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	UploadedAt *time.Time          `json:"uploaded_at,omitempty"`
	ArchivedAt *time.Time          `json:"archived_at,omitempty"`
}

// IssueResponse is one validation finding.
type IssueResponse struct {
	RuleID      string   `json:"rule_id"`
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// SuggestionResponse is a container identifier offered for a decision.
type SuggestionResponse struct {
	ContainerID string     `json:"container_id"`
	Confidence  float64    `json:"confidence"`
	Status      string     `json:"status"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// DocumentListResponse wraps the documents of a shipment.
type DocumentListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Count     int                 `json:"count"`
}

// FromDocument converts a domain document. NextStates lists what role may
// request from the current state.
func FromDocument(d *models.Document, role lifecycle.Role) *DocumentResponse {
	resp := &DocumentResponse{
		ID:         d.ID.String(),
		ShipmentID: d.ShipmentID.String(),
		Type:       d.Type.String(),
		State:      d.State.String(),
		Version:    d.Version,
		NextStates: []string{},
		Fields:     d.Fields,
		Confidence: d.Confidence,
		Issues:     FromIssues(d.Issues),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		UploadedAt: d.UploadedAt,
		ArchivedAt: d.ArchivedAt,
	}
	for _, s := range lifecycle.Next(role, d.State) {
		resp.NextStates = append(resp.NextStates, s.String())
	}
	if !d.UploadedBy.IsNil() {
		resp.UploadedBy = d.UploadedBy.String()
	}
	if d.Suggestion != nil {
		resp.Suggestion = &SuggestionResponse{
			ContainerID: d.Suggestion.ContainerID,
			Confidence:  d.Suggestion.Confidence,
			Status:      string(d.Suggestion.Status),
			DecidedAt:   d.Suggestion.DecidedAt,
		}
	}
	return resp
}

// FromDocuments converts a document list in stable order.
func FromDocuments(docs []*models.Document, role lifecycle.Role) *DocumentListResponse {
	sorted := models.SortDocuments(docs)
	out := make([]*DocumentResponse, 0, len(sorted))
	for _, d := range sorted {
		out = append(out, FromDocument(d, role))
	}
	return &DocumentListResponse{Documents: out, Count: len(out)}
}

// FromIssues converts validation issues.
func FromIssues(issues models.Issues) []IssueResponse {
	out := make([]IssueResponse, 0, len(issues))
	for _, i := range issues {
		ir := IssueResponse{
			RuleID:   i.RuleID,
			Severity: string(i.Severity),
			Message:  i.Message,
		}
		for _, d := range i.DocumentIDs {
			ir.DocumentIDs = append(ir.DocumentIDs, d.String())
		}
		out = append(out, ir)
	}
	return out
}
