package models

import (
	"strings"
	"time"

	docmodels "exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
)

const maxReferenceLength = 64

// ComplianceStatus is derived from the shipment's documents and validation
// issues. It is never set directly by a caller.
type ComplianceStatus string

const (
	StatusPending      ComplianceStatus = "pending"
	StatusCompliant    ComplianceStatus = "compliant"
	StatusNonCompliant ComplianceStatus = "non_compliant"
)

func (s ComplianceStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompliant, StatusNonCompliant:
		return true
	}
	return false
}

func (s ComplianceStatus) String() string {
	return string(s)
}

// Shipment is the aggregate root for goods moving from origin to destination.
//
// Invariants:
//   - Reference is non-empty, at most 64 characters, unique per organization
//   - OrganizationID never changes
//   - Status only changes through ApplyStatus with an aggregated result
//   - Once ArchivedAt is set the shipment and its documents are read-only
type Shipment struct {
	ID                id.ShipmentID        `json:"id"`
	OrganizationID    id.OrganizationID    `json:"organization_id"`
	Reference         string               `json:"reference"`
	CommodityCode     string               `json:"commodity_code"`
	DeclaredWeight    *extraction.Quantity `json:"declared_weight,omitempty"`
	DeclaredContainer string               `json:"declared_container,omitempty"`
	Status            ComplianceStatus     `json:"compliance_status"`
	Version           int                  `json:"version"`
	CreatedBy         id.ActorID           `json:"created_by"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	ArchivedAt        *time.Time           `json:"archived_at,omitempty"`
}

func NewShipment(
	shipmentID id.ShipmentID,
	orgID id.OrganizationID,
	reference string,
	commodityCode string,
	declaredWeight *extraction.Quantity,
	declaredContainer string,
	createdBy id.ActorID,
	now time.Time,
) (*Shipment, error) {
	reference = strings.TrimSpace(reference)
	if shipmentID.IsNil() || orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "shipment and organization ids are required")
	}
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "shipment reference cannot be empty")
	}
	if len(reference) > maxReferenceLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "shipment reference must be 64 characters or less")
	}
	if declaredWeight != nil && (declaredWeight.Value < 0 || declaredWeight.Dimension() == extraction.DimensionUnknown) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "declared weight must be a non-negative known quantity")
	}
	return &Shipment{
		ID:                shipmentID,
		OrganizationID:    orgID,
		Reference:         reference,
		CommodityCode:     strings.TrimSpace(commodityCode),
		DeclaredWeight:    declaredWeight,
		DeclaredContainer: normalizeDeclaredContainer(declaredContainer),
		Status:            StatusPending,
		Version:           1,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// placeholders are kept as typed; real identifiers are normalized.
func normalizeDeclaredContainer(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || extraction.IsPlaceholder(raw) {
		return raw
	}
	return extraction.NormalizeContainerID(raw)
}

func (s *Shipment) IsArchived() bool {
	return s.ArchivedAt != nil
}

// HasPlaceholderContainer reports whether the declared container is still a
// provisional identifier.
func (s *Shipment) HasPlaceholderContainer() bool {
	return extraction.IsPlaceholder(s.DeclaredContainer)
}

// CanModify rejects changes to an archived shipment or its documents.
func (s *Shipment) CanModify() error {
	if s.IsArchived() {
		return dErrors.New(dErrors.CodeInvariantViolation, "shipment is archived")
	}
	return nil
}

// ApplyStatus stores an aggregated status and reports whether it changed.
func (s *Shipment) ApplyStatus(status ComplianceStatus, now time.Time) bool {
	if s.Status == status {
		return false
	}
	s.Status = status
	s.Version++
	s.UpdatedAt = now
	return true
}

// CanSetContainer checks that the declared container may be replaced with id.
func (s *Shipment) CanSetContainer(containerID string) error {
	if err := s.CanModify(); err != nil {
		return err
	}
	if !extraction.ValidContainerShape(extraction.NormalizeContainerID(containerID)) {
		return dErrors.New(dErrors.CodeValidation, "container identifier must be four letters followed by seven digits")
	}
	return nil
}

// ApplyContainer replaces the declared container. Call CanSetContainer first.
func (s *Shipment) ApplyContainer(containerID string, now time.Time) {
	s.DeclaredContainer = extraction.NormalizeContainerID(containerID)
	s.Version++
	s.UpdatedAt = now
}

// CanArchive requires every document of the shipment to be archived.
func (s *Shipment) CanArchive(docs []*docmodels.Document) error {
	if s.IsArchived() {
		return dErrors.New(dErrors.CodeInvariantViolation, "shipment is already archived")
	}
	for _, d := range docs {
		if d.State != lifecycle.StateArchived {
			return dErrors.New(dErrors.CodeInvariantViolation, "all documents must be archived first")
		}
	}
	return nil
}

// ApplyArchive marks the shipment archived. Call CanArchive first.
func (s *Shipment) ApplyArchive(now time.Time) {
	s.ArchivedAt = &now
	s.Version++
	s.UpdatedAt = now
}

// Clone returns a copy safe to mutate without affecting s.
func (s *Shipment) Clone() *Shipment {
	c := *s
	if s.DeclaredWeight != nil {
		w := *s.DeclaredWeight
		c.DeclaredWeight = &w
	}
	if s.ArchivedAt != nil {
		t := *s.ArchivedAt
		c.ArchivedAt = &t
	}
	return &c
}
