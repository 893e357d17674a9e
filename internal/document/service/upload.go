package service

import (
	"context"
	"strings"
	"time"

	"exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	shipmodels "exportdocs/internal/shipment/models"
	"exportdocs/internal/validation"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/requestcontext"
)

// sanitizeText drops NUL bytes and invalid UTF-8 and enforces the size limit.
func sanitizeText(text string) (string, error) {
	text = strings.ToValidUTF8(strings.ReplaceAll(text, "\x00", ""), "")
	if len(text) > models.MaxTextLength {
		return "", dErrors.New(dErrors.CodeValidation, "document text exceeds 1 MiB")
	}
	return text, nil
}

// Attach records the text of a DRAFT document and moves it to UPLOADED. The
// format check runs immediately: when it passes the system moves the
// document on to VALIDATED and snapshots the validation issues; when it
// fails the document stays UPLOADED with the format issues, and text may be
// attached again. Upload, validation and the automatic decision commit as
// one unit of work.
func (s *Service) Attach(ctx context.Context, actor lifecycle.Actor, docID id.DocumentID, text string) (doc *models.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.attach", actor.OrganizationID, docID)
	defer func() { finishSpan(span, err) }()

	text, err = sanitizeText(text)
	if err != nil {
		return nil, err
	}
	orgID := actor.OrganizationID
	current, err := s.loadDocument(ctx, orgID, docID)
	if err != nil {
		return nil, err
	}
	shipment, err := s.loadShipment(ctx, orgID, current.ShipmentID)
	if err != nil {
		return nil, err
	}
	if err := shipment.CanModify(); err != nil {
		return nil, err
	}

	switch current.State {
	case lifecycle.StateDraft:
		if err := s.check(actor, current, lifecycle.StateUploaded, lifecycle.Facts{}); err != nil {
			return nil, err
		}
	case lifecycle.StateUploaded:
		if !actor.Role.IsHuman() {
			return nil, dErrors.New(dErrors.CodeForbidden, "text is attached by authenticated actors")
		}
	default:
		return nil, s.invalid(&lifecycle.TransitionError{
			From:   current.State,
			To:     lifecycle.StateUploaded,
			Role:   actor.Role,
			Reason: "text can only be attached to draft or uploaded documents",
		}, lifecycle.StateUploaded)
	}

	now := requestcontext.Now(ctx)
	uploaded := current.Clone()
	s.applyText(ctx, uploaded, text, actor, now)
	if current.State == lifecycle.StateDraft {
		uploaded.ApplyTransition(lifecycle.StateUploaded, now)
	}
	uploaded.Issues = s.validator.CheckFormat(uploaded)

	var decided *models.Document
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.commit(ctx, actor, current, uploaded); err != nil {
			return err
		}
		if len(uploaded.Issues) > 0 {
			decided = uploaded
			return nil
		}
		validated, report, err := s.validateUploaded(ctx, shipment, uploaded, now)
		if err != nil {
			return err
		}
		decided, err = s.autoDecide(ctx, validated, report)
		return err
	})
	if err != nil {
		return nil, translate(err, "document not found", "failed to attach document text")
	}
	if len(uploaded.Issues) > 0 {
		s.logger.InfoContext(ctx, "document failed format check",
			"document_id", docID.String(),
			"issues", len(uploaded.Issues),
		)
	}
	s.refresh(ctx, orgID, shipment.ID)
	return decided, nil
}

// Resubmit replaces the text of a COMPLIANCE_FAILED document. A corrected
// document that passes the format check returns to VALIDATED with a fresh
// issue snapshot; one that fails is rejected and nothing is stored.
func (s *Service) Resubmit(ctx context.Context, actor lifecycle.Actor, docID id.DocumentID, text string) (doc *models.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.resubmit", actor.OrganizationID, docID)
	defer func() { finishSpan(span, err) }()

	if !actor.Role.IsHuman() {
		return nil, dErrors.New(dErrors.CodeForbidden, "documents are resubmitted by authenticated actors")
	}
	text, err = sanitizeText(text)
	if err != nil {
		return nil, err
	}
	orgID := actor.OrganizationID
	current, err := s.loadDocument(ctx, orgID, docID)
	if err != nil {
		return nil, err
	}
	shipment, err := s.loadShipment(ctx, orgID, current.ShipmentID)
	if err != nil {
		return nil, err
	}
	if err := shipment.CanModify(); err != nil {
		return nil, err
	}

	system := lifecycle.System(orgID)
	if err := s.check(system, current, lifecycle.StateValidated, lifecycle.Facts{}); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	next := current.Clone()
	s.applyText(ctx, next, text, actor, now)
	if issues := s.validator.CheckFormat(next); len(issues) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "resubmitted document fails format check: "+issues[0].Message)
	}

	next.ApplyTransition(lifecycle.StateValidated, now)
	report, err := s.validate(ctx, shipment, next, now)
	if err != nil {
		return nil, err
	}
	next.SnapshotIssues(report.Issues)
	if err := s.commit(ctx, system, current, next); err != nil {
		return nil, err
	}

	decided, err := s.autoDecide(ctx, next, report)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, orgID, shipment.ID)
	return decided, nil
}

// Decide lets the system apply the automatic decision to a VALIDATED
// document: with auto-fail on, a document carrying ERROR issues moves to
// COMPLIANCE_FAILED. Anything else is returned unchanged.
func (s *Service) Decide(ctx context.Context, orgID id.OrganizationID, docID id.DocumentID) (doc *models.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.decide", orgID, docID)
	defer func() { finishSpan(span, err) }()

	current, err := s.loadDocument(ctx, orgID, docID)
	if err != nil {
		return nil, err
	}
	if current.State != lifecycle.StateValidated || !s.config.AutoFail {
		return current, nil
	}
	shipment, err := s.loadShipment(ctx, orgID, current.ShipmentID)
	if err != nil {
		return nil, err
	}
	if err := shipment.CanModify(); err != nil {
		return nil, err
	}
	report, err := s.validate(ctx, shipment, current, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	decided, err := s.autoDecide(ctx, current, report)
	if err != nil {
		return nil, err
	}
	if decided.State != current.State {
		s.refresh(ctx, orgID, shipment.ID)
	}
	return decided, nil
}

func (s *Service) applyText(ctx context.Context, doc *models.Document, text string, actor lifecycle.Actor, now time.Time) {
	fields := extraction.ParseFields(doc.Type, text)
	doc.ApplyText(text, fields, actor.ID, s.config.SuggestionThreshold, now)
	if doc.Confidence != nil {
		s.metrics.ObserveExtractionConfidence(*doc.Confidence)
	}
	if doc.Suggestion != nil {
		s.metrics.IncrementSuggestion("surfaced")
		s.logger.InfoContext(ctx, "container suggestion surfaced",
			"document_id", doc.ID.String(),
			"container", doc.Suggestion.ContainerID,
			"confidence", doc.Suggestion.Confidence,
		)
	}
}

// validateUploaded performs the system UPLOADED to VALIDATED step.
func (s *Service) validateUploaded(ctx context.Context, shipment *shipmodels.Shipment, uploaded *models.Document, now time.Time) (*models.Document, validation.Report, error) {
	system := lifecycle.System(shipment.OrganizationID)
	if err := s.check(system, uploaded, lifecycle.StateValidated, lifecycle.Facts{}); err != nil {
		return nil, validation.Report{}, err
	}
	next := uploaded.Clone()
	next.ApplyTransition(lifecycle.StateValidated, now)
	report, err := s.validate(ctx, shipment, next, now)
	if err != nil {
		return nil, validation.Report{}, err
	}
	next.SnapshotIssues(report.Issues)
	if err := s.commit(ctx, system, uploaded, next); err != nil {
		return nil, validation.Report{}, err
	}
	return next, report, nil
}

// autoDecide moves a VALIDATED document with ERROR issues to
// COMPLIANCE_FAILED when auto-fail is configured.
func (s *Service) autoDecide(ctx context.Context, doc *models.Document, report validation.Report) (*models.Document, error) {
	if !s.config.AutoFail || doc.State != lifecycle.StateValidated {
		return doc, nil
	}
	blocking := report.Issues.BlockingFor(doc.ID)
	if blocking == 0 {
		return doc, nil
	}
	system := lifecycle.System(doc.OrganizationID)
	facts := lifecycle.Facts{BlockingErrors: blocking, AutoFail: true}
	if err := s.check(system, doc, lifecycle.StateComplianceFailed, facts); err != nil {
		return nil, err
	}
	next := doc.Clone()
	next.ApplyTransition(lifecycle.StateComplianceFailed, requestcontext.Now(ctx))
	if err := s.commit(ctx, system, doc, next); err != nil {
		return nil, err
	}
	return next, nil
}
