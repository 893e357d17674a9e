package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	"exportdocs/internal/shipment/handler/mocks"
	"exportdocs/internal/shipment/models"
	"exportdocs/internal/shipment/service"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/testutil"
)

type ShipmentHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	actorID id.ActorID
	orgID   id.OrganizationID
	now     time.Time
}

func TestShipmentHandlerSuite(t *testing.T) {
	suite.Run(t, new(ShipmentHandlerSuite))
}

func (s *ShipmentHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
	s.actorID = id.ActorID(uuid.New())
	s.orgID = id.OrganizationID(uuid.New())
	s.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func (s *ShipmentHandlerSuite) as(req *http.Request, role string) *http.Request {
	return testutil.WithActor(req, s.actorID, s.orgID, role)
}

func (s *ShipmentHandlerSuite) shipment() *models.Shipment {
	return &models.Shipment{
		ID:                id.ShipmentID(uuid.New()),
		OrganizationID:    s.orgID,
		Reference:         "EXP-2026-001",
		CommodityCode:     "1801.00",
		DeclaredContainer: "TBD",
		DeclaredWeight:    &extraction.Quantity{Value: 1200, Unit: extraction.UnitKilogram},
		Status:            models.StatusPending,
		Version:           1,
		CreatedAt:         s.now,
		UpdatedAt:         s.now,
	}
}

func (s *ShipmentHandlerSuite) TestCreate() {
	s.Run("created with parsed weight", func() {
		created := s.shipment()
		s.service.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, actor lifecycle.Actor, in service.CreateInput) (*models.Shipment, error) {
				s.Equal(lifecycle.RoleLogistics, actor.Role)
				s.Equal(s.orgID, actor.OrganizationID)
				s.Equal("EXP-2026-001", in.Reference)
				s.Require().NotNil(in.DeclaredWeight)
				s.Equal(extraction.UnitKilogram, in.DeclaredWeight.Unit)
				return created, nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/shipments", map[string]any{
			"reference":          "  EXP-2026-001 ",
			"commodity_code":     "1801.00",
			"declared_weight":    map[string]any{"value": 1200, "unit": "KGS"},
			"declared_container": "TBD",
		})
		rr := testutil.DoRequest(s.router, s.as(req, "logistics"))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[ShipmentResponse](s.T(), rr)
		s.Equal(created.ID.String(), resp.ID)
		s.True(resp.PlaceholderContainer)
		s.Equal("pending", resp.ComplianceStatus)
	})

	s.Run("unknown weight unit is rejected before the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/shipments", map[string]any{
			"reference":       "EXP-1",
			"declared_weight": map[string]any{"value": 10, "unit": "bushels"},
		})
		rr := testutil.DoRequest(s.router, s.as(req, "logistics"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("missing reference", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/shipments", map[string]any{"reference": "   "})
		rr := testutil.DoRequest(s.router, s.as(req, "logistics"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("unauthenticated", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/shipments", map[string]any{"reference": "EXP-1"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("service conflict is passed through", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "shipment reference already in use"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/shipments", map[string]any{"reference": "EXP-1"})
		rr := testutil.DoRequest(s.router, s.as(req, "logistics"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *ShipmentHandlerSuite) TestGetAndStatus() {
	sh := s.shipment()

	s.Run("get", func() {
		s.service.EXPECT().Get(gomock.Any(), s.orgID, sh.ID).Return(sh, nil)
		req := testutil.NewRequest(s.T(), http.MethodGet, "/shipments/"+sh.ID.String())
		rr := testutil.DoRequest(s.router, s.as(req, "supplier"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "reference", "EXP-2026-001")
	})

	s.Run("invalid id", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/shipments/not-a-uuid")
		rr := testutil.DoRequest(s.router, s.as(req, "supplier"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("not found", func() {
		s.service.EXPECT().Get(gomock.Any(), s.orgID, sh.ID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "shipment not found"))
		req := testutil.NewRequest(s.T(), http.MethodGet, "/shipments/"+sh.ID.String())
		rr := testutil.DoRequest(s.router, s.as(req, "supplier"))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("status", func() {
		s.service.EXPECT().Status(gomock.Any(), s.orgID, sh.ID).Return(models.Summary{
			Status:     models.StatusPending,
			Required:   []id.DocumentType{id.DocumentCommercialInvoice, id.DocumentBillOfLading},
			Satisfied:  []id.DocumentType{id.DocumentCommercialInvoice},
			Missing:    []id.DocumentType{id.DocumentBillOfLading},
			ErrorCount: 1,
			Classified: true,
		}, nil)
		req := testutil.NewRequest(s.T(), http.MethodGet, "/shipments/"+sh.ID.String()+"/status")
		rr := testutil.DoRequest(s.router, s.as(req, "compliance"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[StatusResponse](s.T(), rr)
		s.Equal("pending", resp.Status)
		s.Equal([]string{"bill_of_lading"}, resp.Missing)
		s.Empty(resp.FailedDocuments)
	})

	s.Run("recompute", func() {
		s.service.EXPECT().Recompute(gomock.Any(), s.orgID, sh.ID).
			Return(models.Summary{Status: models.StatusCompliant}, nil)
		req := testutil.NewRequest(s.T(), http.MethodPost, "/shipments/"+sh.ID.String()+"/recompute")
		rr := testutil.DoRequest(s.router, s.as(req, "compliance"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "compliant")
	})
}

func (s *ShipmentHandlerSuite) TestRecomputeAll() {
	s.Run("compliance officer", func() {
		s.service.EXPECT().RecomputeAll(gomock.Any(), s.orgID).Return(3, nil)
		req := testutil.NewRequest(s.T(), http.MethodPost, "/shipments/recompute")
		rr := testutil.DoRequest(s.router, s.as(req, "compliance"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "changed", float64(3))
	})

	s.Run("supplier is forbidden", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/shipments/recompute")
		rr := testutil.DoRequest(s.router, s.as(req, "supplier"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *ShipmentHandlerSuite) TestArchiveAndPlaceholders() {
	sh := s.shipment()

	s.Run("archive forwards the actor", func() {
		archived := *sh
		archived.ArchivedAt = &s.now
		s.service.EXPECT().Archive(gomock.Any(), gomock.Any(), sh.ID).
			DoAndReturn(func(_ context.Context, actor lifecycle.Actor, _ id.ShipmentID) (*models.Shipment, error) {
				s.Equal(lifecycle.RoleAdmin, actor.Role)
				return &archived, nil
			})
		req := testutil.NewRequest(s.T(), http.MethodPost, "/shipments/"+sh.ID.String()+"/archive")
		rr := testutil.DoRequest(s.router, s.as(req, "admin"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONHasKey(s.T(), rr, "archived_at")
	})

	s.Run("placeholders page", func() {
		s.service.EXPECT().ScanPlaceholders(gomock.Any(), s.orgID, 20, 10).Return([]*models.Shipment{sh}, nil)
		req := testutil.NewRequest(s.T(), http.MethodGet, "/shipments/placeholders?offset=20&limit=10")
		rr := testutil.DoRequest(s.router, s.as(req, "logistics"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[ShipmentListResponse](s.T(), rr)
		s.Equal(1, resp.Count)
	})

	s.Run("placeholders default page", func() {
		s.service.EXPECT().ScanPlaceholders(gomock.Any(), s.orgID, 0, defaultPlaceholderPage).Return(nil, nil)
		req := testutil.NewRequest(s.T(), http.MethodGet, "/shipments/placeholders")
		rr := testutil.DoRequest(s.router, s.as(req, "logistics"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[ShipmentListResponse](s.T(), rr)
		s.Equal(0, resp.Count)
		s.NotNil(resp.Shipments)
	})

	s.Run("non-numeric offset", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/shipments/placeholders?offset=abc")
		rr := testutil.DoRequest(s.router, s.as(req, "logistics"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func TestCreateShipmentRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateShipmentRequest
		wantErr bool
	}{
		{name: "minimal", req: CreateShipmentRequest{Reference: "EXP-1"}},
		{name: "negative weight", req: CreateShipmentRequest{Reference: "EXP-1", DeclaredWeight: &WeightRequest{Value: -1, Unit: "kg"}}, wantErr: true},
		{name: "long code", req: CreateShipmentRequest{Reference: "EXP-1", CommodityCode: "12345678901234567"}, wantErr: true},
		{name: "reference too long", req: CreateShipmentRequest{Reference: string(make([]byte, 65))}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}
