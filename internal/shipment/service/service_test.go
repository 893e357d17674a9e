package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"exportdocs/internal/compliance"
	docmodels "exportdocs/internal/document/models"
	"exportdocs/internal/lifecycle"
	"exportdocs/internal/shipment/models"
	"exportdocs/internal/shipment/service/mocks"
	"exportdocs/internal/validation"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/platform/events"
	"exportdocs/pkg/platform/events/memory"
	"exportdocs/pkg/platform/sentinel"
	"exportdocs/pkg/requestcontext"
)

type ShipmentServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	shipments *mocks.MockShipmentStore
	documents *mocks.MockDocumentLister
	cache     *mocks.MockStatusCache
	recorder  *memory.Recorder
	service   *Service
	ctx       context.Context
	now       time.Time
	org       id.OrganizationID
	logistics lifecycle.Actor
}

func TestShipmentServiceSuite(t *testing.T) {
	suite.Run(t, new(ShipmentServiceSuite))
}

func (s *ShipmentServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.shipments = mocks.NewMockShipmentStore(s.ctrl)
	s.documents = mocks.NewMockDocumentLister(s.ctrl)
	s.cache = mocks.NewMockStatusCache(s.ctrl)
	s.recorder = memory.NewRecorder()
	s.service = New(s.shipments, s.documents, validation.New(compliance.Default()),
		WithStatusCache(s.cache),
		WithPublisher(s.recorder),
	)
	s.now = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.org = id.NewOrganizationID()
	s.logistics = lifecycle.Actor{ID: id.NewActorID(), OrganizationID: s.org, Role: lifecycle.RoleLogistics}
}

func (s *ShipmentServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ShipmentServiceSuite) newShipment() *models.Shipment {
	sh, err := models.NewShipment(id.NewShipmentID(), s.org, "EXP-7", "0901", nil, "MSCU1234565", s.logistics.ID, s.now)
	s.Require().NoError(err)
	return sh
}

// findReturns answers FindByID with a fresh copy on every call, as the stores do.
func (s *ShipmentServiceSuite) findReturns(sh *models.Shipment) *gomock.Call {
	return s.shipments.EXPECT().FindByID(gomock.Any(), s.org, sh.ID).
		DoAndReturn(func(context.Context, id.OrganizationID, id.ShipmentID) (*models.Shipment, error) {
			return sh.Clone(), nil
		})
}

func (s *ShipmentServiceSuite) failedDocument(sh *models.Shipment) *docmodels.Document {
	doc, err := docmodels.NewDocument(id.NewDocumentID(), s.org, sh.ID, id.DocumentCertificateOfOrigin, s.now)
	s.Require().NoError(err)
	doc.State = lifecycle.StateComplianceFailed
	return doc
}

func (s *ShipmentServiceSuite) TestCreate() {
	in := CreateInput{Reference: " EXP-7 ", CommodityCode: "0901.11", DeclaredContainer: "BECKMANN-CNT-001"}

	s.Run("rejects actors other than logistics", func() {
		supplier := s.logistics
		supplier.Role = lifecycle.RoleSupplier
		_, err := s.service.Create(s.ctx, supplier, in)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects an empty reference", func() {
		_, err := s.service.Create(s.ctx, s.logistics, CreateInput{Reference: "  "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("maps duplicate references to conflict", func() {
		s.shipments.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)
		_, err := s.service.Create(s.ctx, s.logistics, in)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("creates a pending shipment in the actor's organization", func() {
		s.shipments.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, sh *models.Shipment) error {
				s.Equal(s.org, sh.OrganizationID)
				s.Equal("EXP-7", sh.Reference)
				s.Equal(s.logistics.ID, sh.CreatedBy)
				return nil
			})
		sh, err := s.service.Create(s.ctx, s.logistics, in)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, sh.Status)
		s.True(sh.HasPlaceholderContainer())
		s.Equal(s.now, sh.CreatedAt)
	})
}

func (s *ShipmentServiceSuite) TestGetNotFound() {
	shipmentID := id.NewShipmentID()
	s.shipments.EXPECT().FindByID(gomock.Any(), s.org, shipmentID).Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Get(s.ctx, s.org, shipmentID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ShipmentServiceSuite) TestRecompute() {
	s.Run("persists a changed status and emits an event", func() {
		s.recorder.Reset()
		sh := s.newShipment()
		docs := []*docmodels.Document{s.failedDocument(sh)}

		s.findReturns(sh)
		s.documents.EXPECT().ListByShipment(gomock.Any(), s.org, sh.ID).Return(docs, nil)
		s.shipments.EXPECT().Update(gomock.Any(), s.org, gomock.Any(), 1).
			DoAndReturn(func(_ context.Context, _ id.OrganizationID, updated *models.Shipment, _ int) error {
				s.Equal(models.StatusNonCompliant, updated.Status)
				s.Equal(2, updated.Version)
				return nil
			})
		s.cache.EXPECT().Put(gomock.Any(), s.org, sh.ID, gomock.Any())

		summary, err := s.service.Recompute(s.ctx, s.org, sh.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusNonCompliant, summary.Status)

		evs := s.recorder.OfType(events.TypeShipmentComplianceChanged)
		s.Require().Len(evs, 1)
		var payload events.ShipmentComplianceChanged
		s.Require().NoError(evs[0].Decode(&payload))
		s.Equal(string(models.StatusPending), payload.From)
		s.Equal(string(models.StatusNonCompliant), payload.To)
		s.Equal(s.org, evs[0].OrganizationID)
	})

	s.Run("leaves an unchanged status alone", func() {
		s.recorder.Reset()
		sh := s.newShipment()

		s.findReturns(sh)
		s.documents.EXPECT().ListByShipment(gomock.Any(), s.org, sh.ID).Return(nil, nil)
		s.cache.EXPECT().Put(gomock.Any(), s.org, sh.ID, gomock.Any())

		summary, err := s.service.Recompute(s.ctx, s.org, sh.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, summary.Status)
		s.Empty(s.recorder.Events())
	})

	s.Run("retries after losing a race on the status write", func() {
		sh := s.newShipment()
		docs := []*docmodels.Document{s.failedDocument(sh)}

		s.findReturns(sh).Times(2)
		s.documents.EXPECT().ListByShipment(gomock.Any(), s.org, sh.ID).Return(docs, nil).Times(2)
		gomock.InOrder(
			s.shipments.EXPECT().Update(gomock.Any(), s.org, gomock.Any(), 1).Return(sentinel.ErrStaleState),
			s.shipments.EXPECT().Update(gomock.Any(), s.org, gomock.Any(), 1).Return(nil),
		)
		s.cache.EXPECT().Put(gomock.Any(), s.org, sh.ID, gomock.Any())

		summary, err := s.service.Recompute(s.ctx, s.org, sh.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusNonCompliant, summary.Status)
	})

	s.Run("surfaces store failures as internal errors", func() {
		sh := s.newShipment()
		s.shipments.EXPECT().FindByID(gomock.Any(), s.org, sh.ID).Return(nil, errors.New("connection reset"))

		_, err := s.service.Recompute(s.ctx, s.org, sh.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ShipmentServiceSuite) TestStatusUsesCache() {
	sh := s.newShipment()

	s.Run("hit", func() {
		cached := models.Summary{Status: models.StatusCompliant}
		s.cache.EXPECT().Get(gomock.Any(), s.org, sh.ID).Return(cached, true)

		summary, err := s.service.Status(s.ctx, s.org, sh.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompliant, summary.Status)
	})

	s.Run("miss recomputes", func() {
		s.cache.EXPECT().Get(gomock.Any(), s.org, sh.ID).Return(models.Summary{}, false)
		s.findReturns(sh)
		s.documents.EXPECT().ListByShipment(gomock.Any(), s.org, sh.ID).Return(nil, nil)
		s.cache.EXPECT().Put(gomock.Any(), s.org, sh.ID, gomock.Any())

		summary, err := s.service.Status(s.ctx, s.org, sh.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, summary.Status)
		s.Contains(summary.Missing, id.DocumentDueDiligence)
	})
}

func (s *ShipmentServiceSuite) TestArchive() {
	admin := lifecycle.Actor{ID: id.NewActorID(), OrganizationID: s.org, Role: lifecycle.RoleAdmin}

	s.Run("admin only", func() {
		_, err := s.service.Archive(s.ctx, s.logistics, id.NewShipmentID())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("requires archived documents", func() {
		sh := s.newShipment()
		s.findReturns(sh)
		s.documents.EXPECT().ListByShipment(gomock.Any(), s.org, sh.ID).
			Return([]*docmodels.Document{s.failedDocument(sh)}, nil)

		_, err := s.service.Archive(s.ctx, admin, sh.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("archives and drops the cached status", func() {
		s.recorder.Reset()
		sh := s.newShipment()
		doc := s.failedDocument(sh)
		doc.State = lifecycle.StateArchived

		s.findReturns(sh)
		s.documents.EXPECT().ListByShipment(gomock.Any(), s.org, sh.ID).Return([]*docmodels.Document{doc}, nil)
		s.shipments.EXPECT().Update(gomock.Any(), s.org, gomock.Any(), 1).Return(nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), s.org, sh.ID)

		archived, err := s.service.Archive(s.ctx, admin, sh.ID)
		s.Require().NoError(err)
		s.True(archived.IsArchived())
		s.Equal(s.now, *archived.ArchivedAt)

		evs := s.recorder.OfType(events.TypeShipmentArchived)
		s.Require().Len(evs, 1)
		var payload events.ShipmentArchived
		s.Require().NoError(evs[0].Decode(&payload))
		s.Equal(sh.ID.String(), payload.ShipmentID)
		s.Equal(admin.ID.String(), payload.ActorID)
		s.Equal(2, payload.Version)
	})

	s.Run("a lost race emits nothing", func() {
		s.recorder.Reset()
		sh := s.newShipment()
		doc := s.failedDocument(sh)
		doc.State = lifecycle.StateArchived

		s.findReturns(sh)
		s.documents.EXPECT().ListByShipment(gomock.Any(), s.org, sh.ID).Return([]*docmodels.Document{doc}, nil)
		s.shipments.EXPECT().Update(gomock.Any(), s.org, gomock.Any(), 1).Return(sentinel.ErrStaleState)

		_, err := s.service.Archive(s.ctx, admin, sh.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeStaleState))
		s.Empty(s.recorder.Events())
	})

	s.Run("runs inside a unit of work", func() {
		runner := mocks.NewMockTxRunner(s.ctrl)
		svc := New(s.shipments, s.documents, validation.New(compliance.Default()),
			WithStatusCache(s.cache),
			WithPublisher(s.recorder),
			WithTxRunner(runner),
		)
		sh := s.newShipment()
		doc := s.failedDocument(sh)
		doc.State = lifecycle.StateArchived

		s.findReturns(sh)
		s.documents.EXPECT().ListByShipment(gomock.Any(), s.org, sh.ID).Return([]*docmodels.Document{doc}, nil)
		runner.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
				return fn(ctx)
			})
		s.shipments.EXPECT().Update(gomock.Any(), s.org, gomock.Any(), 1).Return(nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), s.org, sh.ID)

		_, err := svc.Archive(s.ctx, admin, sh.ID)
		s.Require().NoError(err)
	})
}

func (s *ShipmentServiceSuite) TestScanPlaceholdersClampsLimit() {
	s.shipments.EXPECT().ListPlaceholders(gomock.Any(), s.org, 0, maxPlaceholderPage).Return(nil, nil)

	_, err := s.service.ScanPlaceholders(s.ctx, s.org, 0, 10_000)
	s.Require().NoError(err)

	_, err = s.service.ScanPlaceholders(s.ctx, s.org, -1, 10)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
