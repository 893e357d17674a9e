package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"exportdocs/internal/compliance"
	"exportdocs/internal/document/models"
	"exportdocs/internal/document/service/mocks"
	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	shipmodels "exportdocs/internal/shipment/models"
	"exportdocs/internal/validation"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/platform/sentinel"
	"exportdocs/pkg/requestcontext"
)

type fixture struct {
	documents  *mocks.MockDocumentStore
	shipments  *mocks.MockShipmentStore
	recomputer *mocks.MockStatusRecomputer
	service    *Service
	ctx        context.Context
	reviewer   lifecycle.Actor
	shipment   *shipmodels.Shipment
	doc        *models.Document
}

// newFixture prepares a VALIDATED bill of lading on a fresh shipment.
func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	org := id.NewOrganizationID()

	sh, err := shipmodels.NewShipment(id.NewShipmentID(), org, "EXP-1", "9706", nil, "MRSU3452572", id.NewActorID(), now)
	require.NoError(t, err)
	doc, err := models.NewDocument(id.NewDocumentID(), org, sh.ID, id.DocumentBillOfLading, now)
	require.NoError(t, err)
	doc.ApplyText(bolText, extraction.ParseFields(doc.Type, bolText), id.NewActorID(), extraction.SuggestionThreshold, now)
	doc.ApplyTransition(lifecycle.StateUploaded, now)
	doc.ApplyTransition(lifecycle.StateValidated, now)

	f := &fixture{
		documents:  mocks.NewMockDocumentStore(ctrl),
		shipments:  mocks.NewMockShipmentStore(ctrl),
		recomputer: mocks.NewMockStatusRecomputer(ctrl),
		ctx:        requestcontext.WithTime(context.Background(), now.Add(time.Hour)),
		reviewer:   lifecycle.Actor{ID: id.NewActorID(), OrganizationID: org, Role: lifecycle.RoleCompliance},
		shipment:   sh,
		doc:        doc,
	}
	f.service = New(f.documents, f.shipments, validation.New(compliance.Default()), WithRecomputer(f.recomputer))
	return f
}

func (f *fixture) expectSnapshot() {
	org := f.reviewer.OrganizationID
	f.documents.EXPECT().FindByID(gomock.Any(), org, f.doc.ID).Return(f.doc.Clone(), nil)
	f.shipments.EXPECT().FindByID(gomock.Any(), org, f.shipment.ID).Return(f.shipment.Clone(), nil)
	f.documents.EXPECT().ListByShipment(gomock.Any(), org, f.shipment.ID).Return([]*models.Document{f.doc.Clone()}, nil)
}

func TestTransitionLostRaceIsStaleState(t *testing.T) {
	f := newFixture(t)
	f.expectSnapshot()
	f.documents.EXPECT().
		CompareAndSwap(gomock.Any(), f.reviewer.OrganizationID, gomock.Any(), lifecycle.StateValidated, f.doc.Version).
		Return(fmt.Errorf("document moved: %w", sentinel.ErrStaleState))

	_, err := f.service.Transition(f.ctx, f.reviewer, f.doc.ID, lifecycle.StateComplianceOK)

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeStaleState))
	assert.ErrorIs(t, err, lifecycle.ErrStaleState)
}

func TestTransitionPersistsNextVersion(t *testing.T) {
	f := newFixture(t)
	f.expectSnapshot()
	f.documents.EXPECT().
		CompareAndSwap(gomock.Any(), f.reviewer.OrganizationID, gomock.Any(), lifecycle.StateValidated, f.doc.Version).
		DoAndReturn(func(_ context.Context, _ id.OrganizationID, next *models.Document, _ lifecycle.State, _ int) error {
			assert.Equal(t, lifecycle.StateComplianceOK, next.State)
			assert.Equal(t, f.doc.Version+1, next.Version)
			return nil
		})
	f.recomputer.EXPECT().Recompute(gomock.Any(), f.reviewer.OrganizationID, f.shipment.ID).
		Return(shipmodels.Summary{}, errors.New("redis down"))

	doc, err := f.service.Transition(f.ctx, f.reviewer, f.doc.ID, lifecycle.StateComplianceOK)

	require.NoError(t, err, "a failed status refresh does not undo the transition")
	assert.Equal(t, lifecycle.StateComplianceOK, doc.State)
}

func TestTransitionUnknownDocument(t *testing.T) {
	f := newFixture(t)
	f.documents.EXPECT().FindByID(gomock.Any(), f.reviewer.OrganizationID, f.doc.ID).Return(nil, sentinel.ErrNotFound)

	_, err := f.service.Transition(f.ctx, f.reviewer, f.doc.ID, lifecycle.StateComplianceOK)

	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestAttachToArchivedShipment(t *testing.T) {
	f := newFixture(t)
	draft, err := models.NewDocument(id.NewDocumentID(), f.reviewer.OrganizationID, f.shipment.ID, id.DocumentPackingList, time.Now())
	require.NoError(t, err)
	archived := f.shipment.Clone()
	archived.ApplyArchive(time.Now())

	f.documents.EXPECT().FindByID(gomock.Any(), f.reviewer.OrganizationID, draft.ID).Return(draft, nil)
	f.shipments.EXPECT().FindByID(gomock.Any(), f.reviewer.OrganizationID, f.shipment.ID).Return(archived, nil)

	_, err = f.service.Attach(f.ctx, f.reviewer, draft.ID, packingText)

	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestAcceptSuggestionShipmentRace(t *testing.T) {
	f := newFixture(t)
	org := f.reviewer.OrganizationID
	gomock.InOrder(
		f.documents.EXPECT().FindByID(gomock.Any(), org, f.doc.ID).Return(f.doc.Clone(), nil),
		f.shipments.EXPECT().FindByID(gomock.Any(), org, f.shipment.ID).Return(f.shipment.Clone(), nil),
		f.shipments.EXPECT().Update(gomock.Any(), org, gomock.Any(), f.shipment.Version).Return(sentinel.ErrStaleState),
	)

	_, err := f.service.AcceptSuggestion(f.ctx, f.reviewer, f.doc.ID)

	assert.True(t, dErrors.HasCode(err, dErrors.CodeStaleState))
	assert.Contains(t, dErrors.MessageOf(err), "shipment")
}

func TestAcceptSuggestionDocumentRaceRestoresContainer(t *testing.T) {
	f := newFixture(t)
	org := f.reviewer.OrganizationID
	f.shipment.DeclaredContainer = "BECKMANN-CNT-001"
	gomock.InOrder(
		f.documents.EXPECT().FindByID(gomock.Any(), org, f.doc.ID).Return(f.doc.Clone(), nil),
		f.shipments.EXPECT().FindByID(gomock.Any(), org, f.shipment.ID).Return(f.shipment.Clone(), nil),
		f.shipments.EXPECT().Update(gomock.Any(), org, gomock.Any(), f.shipment.Version).
			DoAndReturn(func(_ context.Context, _ id.OrganizationID, sh *shipmodels.Shipment, _ int) error {
				assert.Equal(t, "MRSU3452572", sh.DeclaredContainer)
				return nil
			}),
		f.documents.EXPECT().CompareAndSwap(gomock.Any(), org, gomock.Any(), lifecycle.StateValidated, f.doc.Version).
			Return(fmt.Errorf("document moved: %w", sentinel.ErrStaleState)),
		f.shipments.EXPECT().Update(gomock.Any(), org, gomock.Any(), f.shipment.Version+1).
			DoAndReturn(func(_ context.Context, _ id.OrganizationID, sh *shipmodels.Shipment, _ int) error {
				assert.Equal(t, "BECKMANN-CNT-001", sh.DeclaredContainer)
				assert.Equal(t, f.shipment.Version+2, sh.Version)
				return nil
			}),
	)

	_, err := f.service.AcceptSuggestion(f.ctx, f.reviewer, f.doc.ID)

	assert.True(t, dErrors.HasCode(err, dErrors.CodeStaleState))
}

func TestSanitizeText(t *testing.T) {
	got, err := sanitizeText("a\x00b\xffc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}
