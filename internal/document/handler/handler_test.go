package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"exportdocs/internal/document/handler/mocks"
	"exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/testutil"
)

type DocumentHandlerSuite struct {
	suite.Suite
	service    *mocks.MockService
	router     chi.Router
	actorID    id.ActorID
	orgID      id.OrganizationID
	shipmentID id.ShipmentID
	now        time.Time
}

func TestDocumentHandlerSuite(t *testing.T) {
	suite.Run(t, new(DocumentHandlerSuite))
}

func (s *DocumentHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
	s.actorID = id.ActorID(uuid.New())
	s.orgID = id.OrganizationID(uuid.New())
	s.shipmentID = id.ShipmentID(uuid.New())
	s.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func (s *DocumentHandlerSuite) as(req *http.Request, role string) *http.Request {
	return testutil.WithActor(req, s.actorID, s.orgID, role)
}

func (s *DocumentHandlerSuite) document(state lifecycle.State) *models.Document {
	return &models.Document{
		ID:             id.DocumentID(uuid.New()),
		OrganizationID: s.orgID,
		ShipmentID:     s.shipmentID,
		Type:           id.DocumentBillOfLading,
		State:          state,
		Version:        3,
		RawText:        "BILL OF LADING\nContainer No. MRSU 345-2572",
		CreatedAt:      s.now,
		UpdatedAt:      s.now,
	}
}

func (s *DocumentHandlerSuite) TestCreate() {
	s.Run("created in draft", func() {
		doc := s.document(lifecycle.StateDraft)
		s.service.EXPECT().Create(gomock.Any(), gomock.Any(), s.shipmentID, id.DocumentBillOfLading).Return(doc, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/shipments/"+s.shipmentID.String()+"/documents",
			map[string]string{"type": "Bill_Of_Lading"})
		rr := testutil.DoRequest(s.router, s.as(req, "supplier"))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[DocumentResponse](s.T(), rr)
		s.Equal("DRAFT", resp.State)
		s.Equal([]string{"UPLOADED"}, resp.NextStates)
	})

	s.Run("unknown type", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/shipments/"+s.shipmentID.String()+"/documents",
			map[string]string{"type": "passport"})
		rr := testutil.DoRequest(s.router, s.as(req, "supplier"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *DocumentHandlerSuite) TestAttachNeverEchoesText() {
	doc := s.document(lifecycle.StateValidated)
	conf := 0.95
	doc.Fields = &extraction.Fields{ContainerID: "MRSU3452572", ContainerConfidence: conf}
	doc.Confidence = &conf
	doc.Suggestion = &models.Suggestion{ContainerID: "MRSU3452572", Confidence: conf, Status: models.SuggestionPending}
	s.service.EXPECT().Attach(gomock.Any(), gomock.Any(), doc.ID, "BILL OF LADING").Return(doc, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/documents/"+doc.ID.String()+"/text",
		map[string]string{"text": "BILL OF LADING"})
	rr := testutil.DoRequest(s.router, s.as(req, "supplier"))

	testutil.AssertStatusOK(s.T(), rr)
	s.NotContains(rr.Body.String(), "MRSU 345-2572")
	resp := testutil.UnmarshalResponse[DocumentResponse](s.T(), rr)
	s.Equal("VALIDATED", resp.State)
	s.Require().NotNil(resp.Suggestion)
	s.Equal("pending", resp.Suggestion.Status)
	s.Empty(resp.NextStates, "suppliers cannot move a validated document")
}

func (s *DocumentHandlerSuite) TestAttachRejectsOversizedText() {
	docID := id.DocumentID(uuid.New())
	req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/documents/"+docID.String()+"/text",
		map[string]string{"text": strings.Repeat("a", models.MaxTextLength+1)})
	rr := testutil.DoRequest(s.router, s.as(req, "supplier"))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *DocumentHandlerSuite) TestTransition() {
	s.Run("approval", func() {
		doc := s.document(lifecycle.StateComplianceOK)
		s.service.EXPECT().Transition(gomock.Any(), gomock.Any(), doc.ID, lifecycle.StateComplianceOK).
			DoAndReturn(func(_ context.Context, actor lifecycle.Actor, _ id.DocumentID, _ lifecycle.State) (*models.Document, error) {
				s.Equal(lifecycle.RoleCompliance, actor.Role)
				s.Equal(s.actorID, actor.ID)
				return doc, nil
			})
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/"+doc.ID.String()+"/transitions",
			map[string]string{"to": "compliance_ok"})
		rr := testutil.DoRequest(s.router, s.as(req, "compliance"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[DocumentResponse](s.T(), rr)
		s.Equal([]string{"LINKED"}, resp.NextStates)
	})

	s.Run("stale state is a conflict", func() {
		docID := id.DocumentID(uuid.New())
		s.service.EXPECT().Transition(gomock.Any(), gomock.Any(), docID, lifecycle.StateComplianceOK).
			Return(nil, dErrors.Wrap(lifecycle.ErrStaleState, dErrors.CodeStaleState, "document changed concurrently; reload and retry"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/"+docID.String()+"/transitions",
			map[string]string{"to": "COMPLIANCE_OK"})
		rr := testutil.DoRequest(s.router, s.as(req, "compliance"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "stale_state")
	})

	s.Run("invalid transition", func() {
		docID := id.DocumentID(uuid.New())
		s.service.EXPECT().Transition(gomock.Any(), gomock.Any(), docID, lifecycle.StateLinked).
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "cannot move DRAFT to LINKED"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/"+docID.String()+"/transitions",
			map[string]string{"to": "LINKED"})
		rr := testutil.DoRequest(s.router, s.as(req, "compliance"))
		errResp := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("invalid_transition", errResp["error"])
		s.NotEqual(http.StatusOK, rr.Code)
	})

	s.Run("unknown state", func() {
		docID := id.DocumentID(uuid.New())
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/"+docID.String()+"/transitions",
			map[string]string{"to": "SHIPPED"})
		rr := testutil.DoRequest(s.router, s.as(req, "compliance"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *DocumentHandlerSuite) TestDecide() {
	s.Run("automatic failure", func() {
		doc := s.document(lifecycle.StateComplianceFailed)
		s.service.EXPECT().Decide(gomock.Any(), s.orgID, doc.ID).Return(doc, nil)
		req := testutil.NewRequest(s.T(), http.MethodPost, "/documents/"+doc.ID.String()+"/decide")
		rr := testutil.DoRequest(s.router, s.as(req, "compliance"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[DocumentResponse](s.T(), rr)
		s.Equal("COMPLIANCE_FAILED", resp.State)
	})

	s.Run("suppliers cannot trigger it", func() {
		docID := id.DocumentID(uuid.New())
		req := testutil.NewRequest(s.T(), http.MethodPost, "/documents/"+docID.String()+"/decide")
		rr := testutil.DoRequest(s.router, s.as(req, "supplier"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *DocumentHandlerSuite) TestSuggestionDecisions() {
	doc := s.document(lifecycle.StateValidated)
	doc.Suggestion = &models.Suggestion{ContainerID: "MRSU3452572", Confidence: 0.9, Status: models.SuggestionAccepted, DecidedAt: &s.now}

	s.service.EXPECT().AcceptSuggestion(gomock.Any(), gomock.Any(), doc.ID).Return(doc, nil)
	req := testutil.NewRequest(s.T(), http.MethodPost, "/documents/"+doc.ID.String()+"/suggestion/accept")
	rr := testutil.DoRequest(s.router, s.as(req, "logistics"))
	testutil.AssertStatusOK(s.T(), rr)

	s.service.EXPECT().DismissSuggestion(gomock.Any(), gomock.Any(), doc.ID).
		Return(nil, dErrors.New(dErrors.CodeConflict, "suggestion already accepted"))
	req = testutil.NewRequest(s.T(), http.MethodPost, "/documents/"+doc.ID.String()+"/suggestion/dismiss")
	rr = testutil.DoRequest(s.router, s.as(req, "logistics"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
}

func (s *DocumentHandlerSuite) TestListAndGet() {
	first := s.document(lifecycle.StateDraft)
	second := s.document(lifecycle.StateLinked)
	second.CreatedAt = s.now.Add(-time.Hour)

	s.service.EXPECT().List(gomock.Any(), s.orgID, s.shipmentID).Return([]*models.Document{first, second}, nil)
	req := testutil.NewRequest(s.T(), http.MethodGet, "/shipments/"+s.shipmentID.String()+"/documents")
	rr := testutil.DoRequest(s.router, s.as(req, "compliance"))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[DocumentListResponse](s.T(), rr)
	s.Require().Equal(2, resp.Count)
	s.Equal(second.ID.String(), resp.Documents[0].ID, "ordered by creation time")

	s.service.EXPECT().Get(gomock.Any(), s.orgID, first.ID).Return(nil, dErrors.New(dErrors.CodeNotFound, "document not found"))
	req = testutil.NewRequest(s.T(), http.MethodGet, "/documents/"+first.ID.String())
	rr = testutil.DoRequest(s.router, s.as(req, "compliance"))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}

func TestFromDocumentIssues(t *testing.T) {
	docID := id.DocumentID(uuid.New())
	doc := &models.Document{
		ID:    docID,
		Type:  id.DocumentCommercialInvoice,
		State: lifecycle.StateValidated,
		Issues: models.Issues{{
			RuleID:      "WEIGHT_MISMATCH",
			Severity:    models.SeverityError,
			Message:     "gross weight differs",
			DocumentIDs: []id.DocumentID{docID},
		}},
	}
	resp := FromDocument(doc, lifecycle.RoleCompliance)
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "ERROR", resp.Issues[0].Severity)
	assert.Equal(t, []string{docID.String()}, resp.Issues[0].DocumentIDs)
	assert.ElementsMatch(t, []string{"COMPLIANCE_OK", "COMPLIANCE_FAILED"}, resp.NextStates)
}
