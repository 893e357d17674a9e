package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"exportdocs/internal/lifecycle"
	"exportdocs/internal/shipment/models"
	"exportdocs/internal/shipment/service"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/platform/httputil"
	"exportdocs/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the shipment operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, actor lifecycle.Actor, in service.CreateInput) (*models.Shipment, error)
	Get(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (*models.Shipment, error)
	List(ctx context.Context, orgID id.OrganizationID) ([]*models.Shipment, error)
	Status(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (models.Summary, error)
	Recompute(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (models.Summary, error)
	RecomputeAll(ctx context.Context, orgID id.OrganizationID) (int, error)
	Archive(ctx context.Context, actor lifecycle.Actor, shipmentID id.ShipmentID) (*models.Shipment, error)
	ScanPlaceholders(ctx context.Context, orgID id.OrganizationID, offset, limit int) ([]*models.Shipment, error)
}

const defaultPlaceholderPage = 100

// Handler wires shipment endpoints to the shipment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a shipment handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts shipment endpoints on the router. Callers apply the auth
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/shipments", h.HandleCreate)
	r.Get("/shipments", h.HandleList)
	r.Get("/shipments/placeholders", h.HandlePlaceholders)
	r.Post("/shipments/recompute", h.HandleRecomputeAll)
	r.Get("/shipments/{shipmentID}", h.HandleGet)
	r.Get("/shipments/{shipmentID}/status", h.HandleStatus)
	r.Post("/shipments/{shipmentID}/recompute", h.HandleRecompute)
	r.Post("/shipments/{shipmentID}/archive", h.HandleArchive)
}

// HandleCreate handles POST /shipments.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateShipmentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	shipment, err := h.service.Create(ctx, actor, req.Input())
	if err != nil {
		h.fail(ctx, w, "create shipment failed", err, "reference", req.Reference)
		return
	}

	h.logger.InfoContext(ctx, "shipment created",
		"request_id", requestID,
		"shipment_id", shipment.ID.String(),
		"organization_id", actor.OrganizationID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromShipment(shipment))
}

// HandleList handles GET /shipments.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	shipments, err := h.service.List(ctx, actor.OrganizationID)
	if err != nil {
		h.fail(ctx, w, "list shipments failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromShipments(shipments))
}

// HandleGet handles GET /shipments/{shipmentID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	shipmentID, ok := h.shipmentID(w, r)
	if !ok {
		return
	}
	shipment, err := h.service.Get(ctx, actor.OrganizationID, shipmentID)
	if err != nil {
		h.fail(ctx, w, "get shipment failed", err, "shipment_id", shipmentID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromShipment(shipment))
}

// HandleStatus handles GET /shipments/{shipmentID}/status. The answer may
// come from the status cache.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	shipmentID, ok := h.shipmentID(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Status(ctx, actor.OrganizationID, shipmentID)
	if err != nil {
		h.fail(ctx, w, "shipment status failed", err, "shipment_id", shipmentID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSummary(shipmentID, summary))
}

// HandleRecompute handles POST /shipments/{shipmentID}/recompute.
func (h *Handler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	shipmentID, ok := h.shipmentID(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Recompute(ctx, actor.OrganizationID, shipmentID)
	if err != nil {
		h.fail(ctx, w, "shipment recompute failed", err, "shipment_id", shipmentID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSummary(shipmentID, summary))
}

// HandleRecomputeAll handles POST /shipments/recompute. Compliance officers
// and admins only.
func (h *Handler) HandleRecomputeAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if actor.Role != lifecycle.RoleCompliance && actor.Role != lifecycle.RoleAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only compliance officers and admins may re-evaluate all shipments"))
		return
	}

	changed, err := h.service.RecomputeAll(ctx, actor.OrganizationID)
	if err != nil {
		h.fail(ctx, w, "bulk recompute failed", err)
		return
	}

	h.logger.InfoContext(ctx, "bulk recompute finished",
		"request_id", requestID,
		"organization_id", actor.OrganizationID.String(),
		"changed", changed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, &RecomputeAllResponse{Changed: changed})
}

// HandleArchive handles POST /shipments/{shipmentID}/archive.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	shipmentID, ok := h.shipmentID(w, r)
	if !ok {
		return
	}
	shipment, err := h.service.Archive(ctx, actor, shipmentID)
	if err != nil {
		h.fail(ctx, w, "archive shipment failed", err, "shipment_id", shipmentID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromShipment(shipment))
}

// HandlePlaceholders handles GET /shipments/placeholders?offset=&limit=.
func (h *Handler) HandlePlaceholders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultPlaceholderPage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	shipments, err := h.service.ScanPlaceholders(ctx, actor.OrganizationID, offset, limit)
	if err != nil {
		h.fail(ctx, w, "placeholder scan failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromShipments(shipments))
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (lifecycle.Actor, bool) {
	actor, err := lifecycle.ActorFromContext(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return lifecycle.Actor{}, false
	}
	return actor, true
}

func (h *Handler) shipmentID(w http.ResponseWriter, r *http.Request) (id.ShipmentID, bool) {
	shipmentID, err := id.ParseShipmentID(chi.URLParam(r, "shipmentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid shipment id"))
		return id.ShipmentID{}, false
	}
	return shipmentID, true
}

// fail logs at warn for caller mistakes and at error otherwise, then writes
// the error response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	args := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, attrs...)
	if dErrors.HTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, args...)
	} else {
		h.logger.WarnContext(ctx, msg, args...)
	}
	httputil.WriteError(w, err)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, key+" must be an integer")
	}
	return n, nil
}
