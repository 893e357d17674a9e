// Package document persists documents. Every call takes an explicit
// organization ID, and state changes go through a compare-and-swap on the
// stored state and version.
package document

import (
	"context"
	"fmt"
	"sync"

	"exportdocs/internal/document/models"
	"exportdocs/internal/lifecycle"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded store that hands out copies.
type InMemory struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]*models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[id.DocumentID]*models.Document)}
}

func (s *InMemory) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrAlreadyUsed)
	}
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, orgID id.OrganizationID, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok || doc.OrganizationID != orgID {
		return nil, sentinel.ErrNotFound
	}
	return doc.Clone(), nil
}

// ListByShipment returns the shipment's documents in creation order.
func (s *InMemory) ListByShipment(_ context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, doc := range s.docs {
		if doc.OrganizationID == orgID && doc.ShipmentID == shipmentID {
			out = append(out, doc.Clone())
		}
	}
	return models.SortDocuments(out), nil
}

// CompareAndSwap replaces the stored document only while it is still in
// expectedState at expectedVersion. A lost race returns sentinel.ErrStaleState
// and leaves the stored document untouched.
func (s *InMemory) CompareAndSwap(_ context.Context, orgID id.OrganizationID, doc *models.Document, expectedState lifecycle.State, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[doc.ID]
	if !ok || current.OrganizationID != orgID {
		return sentinel.ErrNotFound
	}
	if current.State != expectedState || current.Version != expectedVersion {
		return fmt.Errorf("document %s is %s at version %d, expected %s at %d: %w",
			doc.ID, current.State, current.Version, expectedState, expectedVersion, sentinel.ErrStaleState)
	}
	s.docs[doc.ID] = doc.Clone()
	return nil
}
