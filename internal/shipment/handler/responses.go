package handler

import (
	"time"

	"exportdocs/internal/shipment/models"
	id "exportdocs/pkg/domain"
)

// ShipmentResponse is the HTTP representation of a shipment.
type ShipmentResponse struct {
	ID                   string          `json:"id"`
	Reference            string          `json:"reference"`
	CommodityCode        string          `json:"commodity_code"`
	DeclaredWeight       *WeightResponse `json:"declared_weight,omitempty"`
	DeclaredContainer    string          `json:"declared_container,omitempty"`
	PlaceholderContainer bool            `json:"placeholder_container"`
	ComplianceStatus     string          `json:"compliance_status"`
	Version              int             `json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	ArchivedAt           *time.Time      `json:"archived_at,omitempty"`
}

// WeightResponse is a quantity with its normalized unit.
type WeightResponse struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ShipmentListResponse wraps a page of shipments.
type ShipmentListResponse struct {
	Shipments []*ShipmentResponse `json:"shipments"`
	Count     int                 `json:"count"`
}

// StatusResponse is the aggregated compliance picture of a shipment.
type StatusResponse struct {
	ShipmentID           string   `json:"shipment_id"`
	Status               string   `json:"status"`
	Required             []string `json:"required"`
	Satisfied            []string `json:"satisfied"`
	Missing              []string `json:"missing"`
	FailedDocuments      []string `json:"failed_documents"`
	ErrorCount           int      `json:"error_count"`
	WarningCount         int      `json:"warning_count"`
	DueDiligenceRequired bool     `json:"due_diligence_required"`
	Classified           bool     `json:"classified"`
}

// RecomputeAllResponse reports how many shipments changed status.
type RecomputeAllResponse struct {
	Changed int `json:"changed"`
}

// FromShipment converts a domain shipment to an HTTP response.
func FromShipment(s *models.Shipment) *ShipmentResponse {
	resp := &ShipmentResponse{
		ID:                   s.ID.String(),
		Reference:            s.Reference,
		CommodityCode:        s.CommodityCode,
		DeclaredContainer:    s.DeclaredContainer,
		PlaceholderContainer: s.HasPlaceholderContainer(),
		ComplianceStatus:     s.Status.String(),
		Version:              s.Version,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
		ArchivedAt:           s.ArchivedAt,
	}
	if s.DeclaredWeight != nil {
		resp.DeclaredWeight = &WeightResponse{Value: s.DeclaredWeight.Value, Unit: string(s.DeclaredWeight.Unit)}
	}
	return resp
}

// FromShipments converts a list of shipments.
func FromShipments(shipments []*models.Shipment) *ShipmentListResponse {
	out := make([]*ShipmentResponse, 0, len(shipments))
	for _, s := range shipments {
		out = append(out, FromShipment(s))
	}
	return &ShipmentListResponse{Shipments: out, Count: len(out)}
}

// FromSummary converts an aggregated summary to an HTTP response.
func FromSummary(shipmentID id.ShipmentID, s models.Summary) *StatusResponse {
	failed := make([]string, 0, len(s.FailedDocs))
	for _, d := range s.FailedDocs {
		failed = append(failed, d.String())
	}
	return &StatusResponse{
		ShipmentID:           shipmentID.String(),
		Status:               s.Status.String(),
		Required:             typeStrings(s.Required),
		Satisfied:            typeStrings(s.Satisfied),
		Missing:              typeStrings(s.Missing),
		FailedDocuments:      failed,
		ErrorCount:           s.ErrorCount,
		WarningCount:         s.WarningCount,
		DueDiligenceRequired: s.DueDiligence,
		Classified:           s.Classified,
	}
}

func typeStrings(types []id.DocumentType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}
