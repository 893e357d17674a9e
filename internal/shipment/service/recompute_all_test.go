package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exportdocs/internal/compliance"
	docmodels "exportdocs/internal/document/models"
	docstore "exportdocs/internal/document/store/document"
	"exportdocs/internal/lifecycle"
	"exportdocs/internal/shipment/models"
	shipstore "exportdocs/internal/shipment/store/shipment"
	"exportdocs/internal/validation"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/platform/events"
	"exportdocs/pkg/platform/events/memory"
	"exportdocs/pkg/requestcontext"
)

func TestRecomputeAllUpdatesEveryActiveShipment(t *testing.T) {
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	org := id.NewOrganizationID()

	shipments := shipstore.NewInMemory()
	documents := docstore.NewInMemory()
	recorder := memory.NewRecorder()
	svc := New(shipments, documents, validation.New(compliance.Default()),
		WithPublisher(recorder),
		WithWorkers(3),
	)

	const total = 10
	for i := 0; i < total; i++ {
		sh, err := models.NewShipment(id.NewShipmentID(), org, "EXP-"+string(rune('A'+i)), "0901", nil, "", id.NewActorID(), now)
		require.NoError(t, err)
		require.NoError(t, shipments.Create(ctx, sh))

		// every other shipment carries a failed document
		if i%2 == 0 {
			doc, err := docmodels.NewDocument(id.NewDocumentID(), org, sh.ID, id.DocumentBillOfLading, now)
			require.NoError(t, err)
			doc.State = lifecycle.StateComplianceFailed
			require.NoError(t, documents.Create(ctx, doc))
		}
	}

	changed, err := svc.RecomputeAll(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, total/2, changed)
	assert.Len(t, recorder.OfType(events.TypeShipmentComplianceChanged), total/2)

	all, err := shipments.ListByOrganization(ctx, org)
	require.NoError(t, err)
	nonCompliant := 0
	for _, sh := range all {
		if sh.Status == models.StatusNonCompliant {
			nonCompliant++
		}
	}
	assert.Equal(t, total/2, nonCompliant)

	changed, err = svc.RecomputeAll(ctx, org)
	require.NoError(t, err)
	assert.Zero(t, changed, "a second sweep finds nothing to change")
}
