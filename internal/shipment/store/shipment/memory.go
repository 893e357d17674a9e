// Package shipment persists shipments. Every lookup is scoped by an explicit
// organization ID; a shipment of another organization is reported as not found.
package shipment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"exportdocs/internal/shipment/models"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/platform/sentinel"
)

type refKey struct {
	org       id.OrganizationID
	reference string
}

// InMemory is a mutex-guarded store that hands out copies.
type InMemory struct {
	mu    sync.RWMutex
	byID  map[id.ShipmentID]*models.Shipment
	byRef map[refKey]id.ShipmentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:  make(map[id.ShipmentID]*models.Shipment),
		byRef: make(map[refKey]id.ShipmentID),
	}
}

func referenceKey(org id.OrganizationID, reference string) refKey {
	return refKey{org: org, reference: strings.ToLower(reference)}
}

// Create stores a new shipment. The reference must be unique per organization.
func (s *InMemory) Create(_ context.Context, shipment *models.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[shipment.ID]; ok {
		return fmt.Errorf("shipment %s: %w", shipment.ID, sentinel.ErrAlreadyUsed)
	}
	key := referenceKey(shipment.OrganizationID, shipment.Reference)
	if _, ok := s.byRef[key]; ok {
		return fmt.Errorf("shipment reference %q: %w", shipment.Reference, sentinel.ErrAlreadyUsed)
	}
	s.byID[shipment.ID] = shipment.Clone()
	s.byRef[key] = shipment.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (*models.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, ok := s.byID[shipmentID]
	if !ok || found.OrganizationID != orgID {
		return nil, sentinel.ErrNotFound
	}
	return found.Clone(), nil
}

// ListByOrganization returns the organization's shipments oldest first.
func (s *InMemory) ListByOrganization(_ context.Context, orgID id.OrganizationID) ([]*models.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Shipment
	for _, sh := range s.byID {
		if sh.OrganizationID == orgID {
			out = append(out, sh.Clone())
		}
	}
	sortShipments(out)
	return out, nil
}

// ListPlaceholders pages through the organization's unarchived shipments
// whose declared container is a placeholder.
func (s *InMemory) ListPlaceholders(ctx context.Context, orgID id.OrganizationID, offset, limit int) ([]*models.Shipment, error) {
	all, err := s.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	var matches []*models.Shipment
	for _, sh := range all {
		if !sh.IsArchived() && sh.HasPlaceholderContainer() {
			matches = append(matches, sh)
		}
	}
	return page(matches, offset, limit), nil
}

// Update replaces the stored shipment if its version still equals
// expectedVersion.
func (s *InMemory) Update(_ context.Context, orgID id.OrganizationID, shipment *models.Shipment, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[shipment.ID]
	if !ok || current.OrganizationID != orgID {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("shipment %s at version %d, expected %d: %w",
			shipment.ID, current.Version, expectedVersion, sentinel.ErrStaleState)
	}
	s.byID[shipment.ID] = shipment.Clone()
	return nil
}

func sortShipments(out []*models.Shipment) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
}

func page(items []*models.Shipment, offset, limit int) []*models.Shipment {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
