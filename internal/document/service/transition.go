package service

import (
	"context"

	"exportdocs/internal/document/models"
	"exportdocs/internal/lifecycle"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/requestcontext"
)

// Transition performs one human-driven step: approve (COMPLIANCE_OK),
// reject (COMPLIANCE_FAILED), link (LINKED) or archive (ARCHIVED). Guards are
// evaluated against a fresh validation of the whole shipment.
func (s *Service) Transition(ctx context.Context, actor lifecycle.Actor, docID id.DocumentID, to lifecycle.State) (doc *models.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.transition", actor.OrganizationID, docID)
	defer func() { finishSpan(span, err) }()

	orgID := actor.OrganizationID
	current, err := s.loadDocument(ctx, orgID, docID)
	if err != nil {
		return nil, err
	}

	switch to {
	case lifecycle.StateUploaded, lifecycle.StateValidated:
		return nil, s.invalid(&lifecycle.TransitionError{
			From: current.State, To: to, Role: actor.Role,
			Reason: "reached by attaching or resubmitting text",
		}, to)
	case lifecycle.StateComplianceOK:
		if !current.UploadedBy.IsNil() && current.UploadedBy == actor.ID {
			return nil, s.invalid(&lifecycle.TransitionError{
				From: current.State, To: to, Role: actor.Role,
				Reason: "uploader may not approve own document",
			}, to)
		}
	}

	shipment, err := s.loadShipment(ctx, orgID, current.ShipmentID)
	if err != nil {
		return nil, err
	}
	if to != lifecycle.StateArchived {
		if err := shipment.CanModify(); err != nil {
			return nil, err
		}
	}

	now := requestcontext.Now(ctx)
	report, err := s.validate(ctx, shipment, current, now)
	if err != nil {
		return nil, err
	}
	facts := lifecycle.Facts{
		BlockingErrors:        report.Issues.BlockingFor(current.ID),
		RequirementsSatisfied: report.Summary.RequirementsSatisfied(),
		AutoFail:              s.config.AutoFail,
	}
	if err := s.check(actor, current, to, facts); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.ApplyTransition(to, now)
	if err := s.commit(ctx, actor, current, next); err != nil {
		return nil, err
	}
	s.refresh(ctx, orgID, shipment.ID)
	return next, nil
}
