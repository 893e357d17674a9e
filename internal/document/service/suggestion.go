package service

import (
	"context"
	"errors"
	"time"

	"exportdocs/internal/document/models"
	"exportdocs/internal/lifecycle"
	shipmodels "exportdocs/internal/shipment/models"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/platform/sentinel"
	"exportdocs/pkg/requestcontext"
)

// AcceptSuggestion adopts a document's pending container suggestion as the
// shipment's declared container.
func (s *Service) AcceptSuggestion(ctx context.Context, actor lifecycle.Actor, docID id.DocumentID) (doc *models.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.accept_suggestion", actor.OrganizationID, docID)
	defer func() { finishSpan(span, err) }()

	if !actor.Role.IsHuman() {
		return nil, dErrors.New(dErrors.CodeForbidden, "suggestions are decided by authenticated actors")
	}
	orgID := actor.OrganizationID
	current, err := s.loadDocument(ctx, orgID, docID)
	if err != nil {
		return nil, err
	}
	if err := current.CanDecideSuggestion(); err != nil {
		return nil, err
	}
	containerID := current.Suggestion.ContainerID
	now := requestcontext.Now(ctx)
	next := current.Clone()
	next.ApplySuggestionDecision(true, actor.ID, now)

	var (
		shipmentID id.ShipmentID
		previous   string
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		shipment, err := s.loadShipment(ctx, orgID, current.ShipmentID)
		if err != nil {
			return err
		}
		if err := shipment.CanSetContainer(containerID); err != nil {
			return err
		}
		shipmentID, previous = shipment.ID, shipment.DeclaredContainer
		updated := shipment.Clone()
		updated.ApplyContainer(containerID, now)
		if err := s.shipments.Update(ctx, orgID, updated, shipment.Version); err != nil {
			if errors.Is(err, sentinel.ErrStaleState) {
				return dErrors.Wrap(err, dErrors.CodeStaleState, "shipment changed concurrently; reload and retry")
			}
			return err
		}
		if err := s.documents.CompareAndSwap(ctx, orgID, next, current.State, current.Version); err != nil {
			s.restoreContainer(ctx, orgID, updated, previous, now)
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			s.metrics.IncrementStaleConflict()
		}
		return nil, translate(err, "document not found", "failed to accept suggestion")
	}

	s.metrics.IncrementSuggestion("accepted")
	s.logAudit(ctx, "container_suggestion_accepted",
		"organization_id", orgID.String(),
		"shipment_id", shipmentID.String(),
		"document_id", docID.String(),
		"previous_container", previous,
		"container", containerID,
		"actor_id", actor.ID.String(),
	)
	s.refresh(ctx, orgID, shipmentID)
	return next, nil
}

// restoreContainer writes back the container replaced by an acceptance whose
// document update failed. The in-process runner has no rollback.
func (s *Service) restoreContainer(ctx context.Context, orgID id.OrganizationID, updated *shipmodels.Shipment, previous string, now time.Time) {
	restored := updated.Clone()
	restored.DeclaredContainer = previous
	restored.Version++
	restored.UpdatedAt = now
	if err := s.shipments.Update(ctx, orgID, restored, updated.Version); err != nil {
		s.logger.WarnContext(ctx, "failed to restore declared container",
			"shipment_id", updated.ID.String(),
			"container", previous,
			"error", err,
		)
	}
}

// DismissSuggestion records that a pending suggestion was not adopted.
func (s *Service) DismissSuggestion(ctx context.Context, actor lifecycle.Actor, docID id.DocumentID) (doc *models.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.dismiss_suggestion", actor.OrganizationID, docID)
	defer func() { finishSpan(span, err) }()

	if !actor.Role.IsHuman() {
		return nil, dErrors.New(dErrors.CodeForbidden, "suggestions are decided by authenticated actors")
	}
	current, err := s.loadDocument(ctx, actor.OrganizationID, docID)
	if err != nil {
		return nil, err
	}
	if err := current.CanDecideSuggestion(); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.ApplySuggestionDecision(false, actor.ID, requestcontext.Now(ctx))
	if err := s.commit(ctx, actor, current, next); err != nil {
		return nil, err
	}

	s.metrics.IncrementSuggestion("dismissed")
	s.logAudit(ctx, "container_suggestion_dismissed",
		"organization_id", actor.OrganizationID.String(),
		"document_id", docID.String(),
		"container", next.Suggestion.ContainerID,
		"actor_id", actor.ID.String(),
	)
	return next, nil
}
