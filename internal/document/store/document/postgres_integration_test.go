//go:build integration

package document_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"exportdocs/internal/document/models"
	"exportdocs/internal/document/store/document"
	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	shipmentmodels "exportdocs/internal/shipment/models"
	"exportdocs/internal/shipment/store/shipment"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/platform/sentinel"
	"exportdocs/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *document.PostgresStore
	org      id.OrganizationID
	shipment *shipmentmodels.Shipment
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = document.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "outbox", "documents", "shipments"))
	s.org = id.NewOrganizationID()
	sh, err := shipmentmodels.NewShipment(id.NewShipmentID(), s.org, "EXP-1", "0901", nil, "", id.NewActorID(), time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(shipment.NewPostgres(s.postgres.DB).Create(ctx, sh))
	s.shipment = sh
}

func (s *PostgresStoreSuite) newDocument(docType id.DocumentType) *models.Document {
	doc, err := models.NewDocument(id.NewDocumentID(), s.org, s.shipment.ID, docType, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), doc))
	return doc
}

func (s *PostgresStoreSuite) TestRoundTripWithExtraction() {
	ctx := context.Background()
	doc := s.newDocument(id.DocumentBillOfLading)

	text := "Bill of Lading\nContainer No. MRSU 345-2572\nGross weight: 1,000 kg"
	now := time.Now().UTC().Truncate(time.Microsecond)
	next := doc.Clone()
	next.ApplyText(text, extraction.ParseFields(doc.Type, text), id.NewActorID(), 0.85, now)
	next.ApplyTransition(lifecycle.StateUploaded, now)
	next.SnapshotIssues(models.Issues{{
		RuleID:      "WEIGHT_TOLERANCE",
		Severity:    models.SeverityWarning,
		Message:     "gross weight differs",
		DocumentIDs: []id.DocumentID{doc.ID},
	}})
	s.Require().NoError(s.store.CompareAndSwap(ctx, s.org, next, doc.State, doc.Version))

	found, err := s.store.FindByID(ctx, s.org, doc.ID)
	s.Require().NoError(err)
	s.Equal(lifecycle.StateUploaded, found.State)
	s.Equal(text, found.RawText)
	s.Require().NotNil(found.Fields)
	s.Equal("MRSU3452572", found.Fields.ContainerID)
	s.Require().NotNil(found.Suggestion)
	s.Equal(models.SuggestionPending, found.Suggestion.Status)
	s.Require().Len(found.Issues, 1)
	s.Equal("WEIGHT_TOLERANCE", found.Issues[0].RuleID)
	s.NotNil(found.Confidence)
}

func (s *PostgresStoreSuite) TestConcurrentCompareAndSwap() {
	ctx := context.Background()
	doc := s.newDocument(id.DocumentCommercialInvoice)
	const goroutines = 16

	var wg sync.WaitGroup
	var wins, stale atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := doc.Clone()
			next.ApplyTransition(lifecycle.StateUploaded, time.Now().UTC())
			err := s.store.CompareAndSwap(ctx, s.org, next, doc.State, doc.Version)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrStaleState):
				stale.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), stale.Load())
}

func (s *PostgresStoreSuite) TestForeignOrganization() {
	ctx := context.Background()
	doc := s.newDocument(id.DocumentPackingList)

	_, err := s.store.FindByID(ctx, id.NewOrganizationID(), doc.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.CompareAndSwap(ctx, id.NewOrganizationID(), doc, doc.State, doc.Version), sentinel.ErrNotFound)

	docs, err := s.store.ListByShipment(ctx, s.org, s.shipment.ID)
	s.Require().NoError(err)
	s.Len(docs, 1)
}
