package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"exportdocs/internal/document/metrics"
	"exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	shipmodels "exportdocs/internal/shipment/models"
	"exportdocs/internal/validation"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/platform/events"
	"exportdocs/pkg/platform/sentinel"
	"exportdocs/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// DocumentStore persists documents. State changes go through CompareAndSwap,
// which fails with sentinel.ErrStaleState when the stored document is no
// longer at the expected state and version.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, orgID id.OrganizationID, docID id.DocumentID) (*models.Document, error)
	ListByShipment(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) ([]*models.Document, error)
	CompareAndSwap(ctx context.Context, orgID id.OrganizationID, doc *models.Document, expectedState lifecycle.State, expectedVersion int) error
}

// ShipmentStore reads the owning shipment and stores accepted containers.
type ShipmentStore interface {
	FindByID(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (*shipmodels.Shipment, error)
	Update(ctx context.Context, orgID id.OrganizationID, shipment *shipmodels.Shipment, expectedVersion int) error
}

// Validator runs the upload format check and the cross-document rules.
type Validator interface {
	CheckFormat(doc *models.Document) models.Issues
	Validate(shipment *shipmodels.Shipment, docs []*models.Document, asOf time.Time) validation.Report
}

// StatusRecomputer refreshes a shipment's aggregated status after one of its
// documents changed.
type StatusRecomputer interface {
	Recompute(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (shipmodels.Summary, error)
}

// TxRunner groups a compare-and-swap with the event it produces.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config holds the organization-wide document policy.
type Config struct {
	// AutoFail lets the system reject VALIDATED documents that carry ERROR issues.
	AutoFail bool
	// SuggestionThreshold is the confidence at which an extracted container
	// becomes an actionable suggestion.
	SuggestionThreshold float64
}

var tracer = otel.Tracer("exportdocs/internal/document/service")

// Service drives documents through their lifecycle. Every transition is a
// single checked step persisted with a compare-and-swap; a lost race is
// reported as CodeStaleState and never retried here.
type Service struct {
	documents  DocumentStore
	shipments  ShipmentStore
	validator  Validator
	recomputer StatusRecomputer
	tx         TxRunner
	publisher  events.Publisher
	config     Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithTxRunner(r TxRunner) Option {
	return func(s *Service) {
		if r != nil {
			s.tx = r
		}
	}
}

func WithRecomputer(r StatusRecomputer) Option {
	return func(s *Service) {
		s.recomputer = r
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.SuggestionThreshold <= 0 {
			cfg.SuggestionThreshold = extraction.SuggestionThreshold
		}
		s.config = cfg
	}
}

func New(documents DocumentStore, shipments ShipmentStore, validator Validator, opts ...Option) *Service {
	s := &Service{
		documents: documents,
		shipments: shipments,
		validator: validator,
		tx:        directRunner{},
		publisher: events.Nop{},
		config:    Config{SuggestionThreshold: extraction.SuggestionThreshold},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers an empty DRAFT document on a shipment of the actor's
// organization.
func (s *Service) Create(ctx context.Context, actor lifecycle.Actor, shipmentID id.ShipmentID, docType id.DocumentType) (doc *models.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.create", actor.OrganizationID, id.DocumentID{})
	defer func() { finishSpan(span, err) }()

	if !actor.Role.IsHuman() {
		return nil, dErrors.New(dErrors.CodeForbidden, "documents are created by authenticated actors")
	}
	shipment, err := s.loadShipment(ctx, actor.OrganizationID, shipmentID)
	if err != nil {
		return nil, err
	}
	if err := shipment.CanModify(); err != nil {
		return nil, err
	}

	doc, err = models.NewDocument(id.NewDocumentID(), actor.OrganizationID, shipmentID, docType, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create document")
	}

	s.logAudit(ctx, "document_created",
		"organization_id", actor.OrganizationID.String(),
		"shipment_id", shipmentID.String(),
		"document_id", doc.ID.String(),
		"document_type", string(docType),
		"actor_id", actor.ID.String(),
	)
	return doc, nil
}

func (s *Service) Get(ctx context.Context, orgID id.OrganizationID, docID id.DocumentID) (*models.Document, error) {
	return s.loadDocument(ctx, orgID, docID)
}

// List returns the documents of a shipment in creation order.
func (s *Service) List(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) ([]*models.Document, error) {
	if _, err := s.loadShipment(ctx, orgID, shipmentID); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByShipment(ctx, orgID, shipmentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

func (s *Service) loadDocument(ctx context.Context, orgID id.OrganizationID, docID id.DocumentID) (*models.Document, error) {
	doc, err := s.documents.FindByID(ctx, orgID, docID)
	if err != nil {
		return nil, translate(err, "document not found", "failed to load document")
	}
	return doc, nil
}

func (s *Service) loadShipment(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (*shipmodels.Shipment, error) {
	shipment, err := s.shipments.FindByID(ctx, orgID, shipmentID)
	if err != nil {
		return nil, translate(err, "shipment not found", "failed to load shipment")
	}
	return shipment, nil
}

// validate runs the rule set over the shipment with next standing in for its
// stored version.
func (s *Service) validate(ctx context.Context, shipment *shipmodels.Shipment, next *models.Document, now time.Time) (validation.Report, error) {
	docs, err := s.documents.ListByShipment(ctx, shipment.OrganizationID, shipment.ID)
	if err != nil {
		return validation.Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load documents")
	}
	replaced := false
	for i, d := range docs {
		if d.ID == next.ID {
			docs[i] = next
			replaced = true
		}
	}
	if !replaced {
		docs = append(docs, next)
	}
	return s.validator.Validate(shipment, docs, now), nil
}

// check runs the transition guard and reports a rejection as
// CodeInvalidTransition.
func (s *Service) check(actor lifecycle.Actor, doc *models.Document, to lifecycle.State, facts lifecycle.Facts) error {
	if err := doc.CanTransition(actor.Role, to, facts); err != nil {
		return s.invalid(err, to)
	}
	return nil
}

func (s *Service) invalid(err error, to lifecycle.State) error {
	s.metrics.IncrementInvalidTransition(string(to))
	return dErrors.Wrap(err, dErrors.CodeInvalidTransition, err.Error())
}

// commit persists next over prev with a compare-and-swap and, when the state
// moved, emits document-state-changed in the same unit of work.
func (s *Service) commit(ctx context.Context, actor lifecycle.Actor, prev, next *models.Document) error {
	moved := prev.State != next.State
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.documents.CompareAndSwap(ctx, next.OrganizationID, next, prev.State, prev.Version); err != nil {
			return err
		}
		if !moved {
			return nil
		}
		trigger, _ := lifecycle.TriggerFor(prev.State, next.State)
		ev, err := events.New(events.TypeDocumentStateChanged, next.OrganizationID, events.AggregateDocument, next.ID.String(), next.UpdatedAt,
			events.DocumentStateChanged{
				DocumentID:   next.ID.String(),
				ShipmentID:   next.ShipmentID.String(),
				DocumentType: string(next.Type),
				From:         string(prev.State),
				To:           string(next.State),
				Trigger:      string(trigger),
				ActorID:      actorIDString(actor),
				Role:         string(actor.Role),
				Version:      next.Version,
			})
		if err != nil {
			return err
		}
		return s.publisher.Publish(ctx, ev)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			s.metrics.IncrementStaleConflict()
			s.logger.InfoContext(ctx, "document transition lost a race",
				"document_id", next.ID.String(),
				"from", string(prev.State),
				"to", string(next.State),
			)
		}
		return translate(err, "document not found", "failed to persist document")
	}

	if moved {
		s.metrics.IncrementTransition(string(prev.State), string(next.State))
		s.logAudit(ctx, "document_state_changed",
			"organization_id", next.OrganizationID.String(),
			"shipment_id", next.ShipmentID.String(),
			"document_id", next.ID.String(),
			"from", string(prev.State),
			"to", string(next.State),
			"role", string(actor.Role),
			"actor_id", actorIDString(actor),
		)
	}
	return nil
}

// refresh recomputes the shipment status. The document change is already
// persisted, so a failure here is logged rather than returned.
func (s *Service) refresh(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) {
	if s.recomputer == nil {
		return
	}
	if _, err := s.recomputer.Recompute(ctx, orgID, shipmentID); err != nil {
		s.logger.WarnContext(ctx, "failed to recompute shipment status",
			"shipment_id", shipmentID.String(),
			"error", err,
		)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, orgID id.OrganizationID, docID id.DocumentID) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("organization_id", orgID.String())}
	if !docID.IsNil() {
		attrs = append(attrs, attribute.String("document_id", docID.String()))
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func actorIDString(a lifecycle.Actor) string {
	if a.ID.IsNil() {
		return ""
	}
	return a.ID.String()
}

func translate(err error, notFound, internal string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, sentinel.ErrStaleState):
		return dErrors.Wrap(err, dErrors.CodeStaleState, "document changed concurrently; reload and retry")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, internal)
	}
}

type directRunner struct{}

func (directRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
