package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	docmodels "exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	"exportdocs/internal/shipment/metrics"
	"exportdocs/internal/shipment/models"
	"exportdocs/internal/validation"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/platform/events"
	"exportdocs/pkg/platform/sentinel"
	"exportdocs/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// ShipmentStore persists shipments. Every call is scoped to one organization.
type ShipmentStore interface {
	Create(ctx context.Context, shipment *models.Shipment) error
	FindByID(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (*models.Shipment, error)
	ListByOrganization(ctx context.Context, orgID id.OrganizationID) ([]*models.Shipment, error)
	ListPlaceholders(ctx context.Context, orgID id.OrganizationID, offset, limit int) ([]*models.Shipment, error)
	Update(ctx context.Context, orgID id.OrganizationID, shipment *models.Shipment, expectedVersion int) error
}

// DocumentLister reads the documents of a shipment.
type DocumentLister interface {
	ListByShipment(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) ([]*docmodels.Document, error)
}

// Validator evaluates the cross-document rules over a snapshot.
type Validator interface {
	Validate(shipment *models.Shipment, docs []*docmodels.Document, asOf time.Time) validation.Report
}

// StatusCache holds recently aggregated summaries.
type StatusCache interface {
	Get(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (models.Summary, bool)
	Put(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID, summary models.Summary)
	Invalidate(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID)
}

// TxRunner groups a shipment write with its event.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const (
	defaultWorkers     = 8
	maxPlaceholderPage = 500
	// status writes are derived data and may be retried after a lost race
	maxRecomputeAttempts = 3
)

var tracer = otel.Tracer("exportdocs/internal/shipment/service")

// Service owns shipment records and their aggregated compliance status.
type Service struct {
	shipments ShipmentStore
	documents DocumentLister
	validator Validator
	cache     StatusCache
	tx        TxRunner
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	workers   int
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

func WithStatusCache(c StatusCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithTxRunner(r TxRunner) Option {
	return func(s *Service) {
		if r != nil {
			s.tx = r
		}
	}
}

// WithWorkers bounds the parallelism of RecomputeAll.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func New(shipments ShipmentStore, documents DocumentLister, validator Validator, opts ...Option) *Service {
	s := &Service{
		shipments: shipments,
		documents: documents,
		validator: validator,
		tx:        directRunner{},
		publisher: events.Nop{},
		logger:    slog.Default(),
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the declared facts of a new shipment.
type CreateInput struct {
	Reference         string
	CommodityCode     string
	DeclaredWeight    *extraction.Quantity
	DeclaredContainer string
}

// Create registers a shipment for the actor's organization. Only logistics
// actors create shipments.
func (s *Service) Create(ctx context.Context, actor lifecycle.Actor, in CreateInput) (*models.Shipment, error) {
	if actor.Role != lifecycle.RoleLogistics {
		return nil, dErrors.New(dErrors.CodeForbidden, "only logistics actors may create shipments")
	}
	shipment, err := models.NewShipment(
		id.NewShipmentID(),
		actor.OrganizationID,
		in.Reference,
		in.CommodityCode,
		in.DeclaredWeight,
		in.DeclaredContainer,
		actor.ID,
		requestcontext.Now(ctx),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.shipments.Create(ctx, shipment); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "shipment reference already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create shipment")
	}

	s.metrics.IncrementShipmentsCreated()
	s.logAudit(ctx, "shipment_created",
		"organization_id", shipment.OrganizationID.String(),
		"shipment_id", shipment.ID.String(),
		"reference", shipment.Reference,
		"actor_id", actor.ID.String(),
	)
	if shipment.HasPlaceholderContainer() {
		s.logger.InfoContext(ctx, "shipment declared with placeholder container",
			"shipment_id", shipment.ID.String(),
			"container", shipment.DeclaredContainer,
		)
	}
	return shipment, nil
}

func (s *Service) Get(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (*models.Shipment, error) {
	shipment, err := s.shipments.FindByID(ctx, orgID, shipmentID)
	if err != nil {
		return nil, translate(err, "shipment not found", "failed to load shipment")
	}
	return shipment, nil
}

func (s *Service) List(ctx context.Context, orgID id.OrganizationID) ([]*models.Shipment, error) {
	shipments, err := s.shipments.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list shipments")
	}
	return shipments, nil
}

// Archive closes a shipment for good and emits shipment-archived in the same
// unit of work. Admin only; every document must be archived first.
func (s *Service) Archive(ctx context.Context, actor lifecycle.Actor, shipmentID id.ShipmentID) (*models.Shipment, error) {
	if actor.Role != lifecycle.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins may archive shipments")
	}
	orgID := actor.OrganizationID
	shipment, err := s.shipments.FindByID(ctx, orgID, shipmentID)
	if err != nil {
		return nil, translate(err, "shipment not found", "failed to load shipment")
	}
	docs, err := s.documents.ListByShipment(ctx, orgID, shipmentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load documents")
	}
	if err := shipment.CanArchive(docs); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	expected := shipment.Version
	shipment.ApplyArchive(now)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.shipments.Update(ctx, orgID, shipment, expected); err != nil {
			return err
		}
		ev, err := events.New(events.TypeShipmentArchived, orgID, events.AggregateShipment, shipmentID.String(), now,
			events.ShipmentArchived{
				ShipmentID: shipmentID.String(),
				Reference:  shipment.Reference,
				ActorID:    actor.ID.String(),
				Version:    shipment.Version,
			})
		if err != nil {
			return err
		}
		return s.publisher.Publish(ctx, ev)
	})
	if err != nil {
		return nil, translate(err, "shipment not found", "failed to archive shipment")
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, orgID, shipmentID)
	}

	s.logAudit(ctx, "shipment_archived",
		"organization_id", orgID.String(),
		"shipment_id", shipmentID.String(),
		"actor_id", actor.ID.String(),
	)
	return shipment, nil
}

// ScanPlaceholders pages through unarchived shipments whose declared
// container is still a placeholder.
func (s *Service) ScanPlaceholders(ctx context.Context, orgID id.OrganizationID, offset, limit int) ([]*models.Shipment, error) {
	if offset < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "offset must not be negative")
	}
	if limit <= 0 || limit > maxPlaceholderPage {
		limit = maxPlaceholderPage
	}
	shipments, err := s.shipments.ListPlaceholders(ctx, orgID, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list placeholder shipments")
	}
	return shipments, nil
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

func translate(err error, notFound, internal string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, sentinel.ErrStaleState):
		return dErrors.Wrap(err, dErrors.CodeStaleState, "shipment changed concurrently; reload and retry")
	case isCoded(err):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, internal)
	}
}

func isCoded(err error) bool {
	var de *dErrors.Error
	return errors.As(err, &de)
}

func typeNames(types []id.DocumentType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

type directRunner struct{}

func (directRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
