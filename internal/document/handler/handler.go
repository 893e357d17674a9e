package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"exportdocs/internal/document/models"
	"exportdocs/internal/lifecycle"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/platform/httputil"
	"exportdocs/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the document operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, actor lifecycle.Actor, shipmentID id.ShipmentID, docType id.DocumentType) (*models.Document, error)
	Get(ctx context.Context, orgID id.OrganizationID, docID id.DocumentID) (*models.Document, error)
	List(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) ([]*models.Document, error)
	Attach(ctx context.Context, actor lifecycle.Actor, docID id.DocumentID, text string) (*models.Document, error)
	Resubmit(ctx context.Context, actor lifecycle.Actor, docID id.DocumentID, text string) (*models.Document, error)
	Transition(ctx context.Context, actor lifecycle.Actor, docID id.DocumentID, to lifecycle.State) (*models.Document, error)
	Decide(ctx context.Context, orgID id.OrganizationID, docID id.DocumentID) (*models.Document, error)
	AcceptSuggestion(ctx context.Context, actor lifecycle.Actor, docID id.DocumentID) (*models.Document, error)
	DismissSuggestion(ctx context.Context, actor lifecycle.Actor, docID id.DocumentID) (*models.Document, error)
}

// Handler wires document endpoints to the document service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a document handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts document endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/shipments/{shipmentID}/documents", h.HandleCreate)
	r.Get("/shipments/{shipmentID}/documents", h.HandleList)
	r.Get("/documents/{documentID}", h.HandleGet)
	r.Put("/documents/{documentID}/text", h.HandleAttach)
	r.Post("/documents/{documentID}/resubmit", h.HandleResubmit)
	r.Post("/documents/{documentID}/transitions", h.HandleTransition)
	r.Post("/documents/{documentID}/decide", h.HandleDecide)
	r.Post("/documents/{documentID}/suggestion/accept", h.HandleAcceptSuggestion)
	r.Post("/documents/{documentID}/suggestion/dismiss", h.HandleDismissSuggestion)
}

// HandleCreate handles POST /shipments/{shipmentID}/documents.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	shipmentID, err := id.ParseShipmentID(chi.URLParam(r, "shipmentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid shipment id"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateDocumentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.Create(ctx, actor, shipmentID, req.ParsedType())
	if err != nil {
		h.fail(ctx, w, "create document failed", err, "shipment_id", shipmentID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromDocument(doc, actor.Role))
}

// HandleList handles GET /shipments/{shipmentID}/documents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	shipmentID, err := id.ParseShipmentID(chi.URLParam(r, "shipmentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid shipment id"))
		return
	}
	docs, err := h.service.List(ctx, actor.OrganizationID, shipmentID)
	if err != nil {
		h.fail(ctx, w, "list documents failed", err, "shipment_id", shipmentID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocuments(docs, actor.Role))
}

// HandleGet handles GET /documents/{documentID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, docID, ok := h.target(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(ctx, actor.OrganizationID, docID)
	if err != nil {
		h.fail(ctx, w, "get document failed", err, "document_id", docID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc, actor.Role))
}

// HandleAttach handles PUT /documents/{documentID}/text. A passing format
// check validates the document in the same call.
func (h *Handler) HandleAttach(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, docID, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TextRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	doc, err := h.service.Attach(ctx, actor, docID, req.Text)
	if err != nil {
		h.fail(ctx, w, "attach text failed", err, "document_id", docID.String())
		return
	}
	h.logger.InfoContext(ctx, "document text attached",
		"request_id", requestID,
		"document_id", docID.String(),
		"state", doc.State.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc, actor.Role))
}

// HandleResubmit handles POST /documents/{documentID}/resubmit.
func (h *Handler) HandleResubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, docID, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TextRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	doc, err := h.service.Resubmit(ctx, actor, docID, req.Text)
	if err != nil {
		h.fail(ctx, w, "resubmit failed", err, "document_id", docID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc, actor.Role))
}

// HandleTransition handles POST /documents/{documentID}/transitions.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, docID, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	doc, err := h.service.Transition(ctx, actor, docID, req.ParsedState())
	if err != nil {
		h.fail(ctx, w, "transition failed", err,
			"document_id", docID.String(),
			"to", req.ParsedState().String(),
		)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc, actor.Role))
}

// HandleDecide handles POST /documents/{documentID}/decide. It re-runs the
// automatic decision for a VALIDATED document, for instance after the rest
// of the shipment changed. Compliance officers and admins only.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, docID, ok := h.target(w, r)
	if !ok {
		return
	}
	if actor.Role != lifecycle.RoleCompliance && actor.Role != lifecycle.RoleAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only compliance officers and admins may request an automatic decision"))
		return
	}
	doc, err := h.service.Decide(ctx, actor.OrganizationID, docID)
	if err != nil {
		h.fail(ctx, w, "automatic decision failed", err, "document_id", docID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc, actor.Role))
}

// HandleAcceptSuggestion handles POST /documents/{documentID}/suggestion/accept.
func (h *Handler) HandleAcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, docID, ok := h.target(w, r)
	if !ok {
		return
	}
	doc, err := h.service.AcceptSuggestion(ctx, actor, docID)
	if err != nil {
		h.fail(ctx, w, "accept suggestion failed", err, "document_id", docID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc, actor.Role))
}

// HandleDismissSuggestion handles POST /documents/{documentID}/suggestion/dismiss.
func (h *Handler) HandleDismissSuggestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, docID, ok := h.target(w, r)
	if !ok {
		return
	}
	doc, err := h.service.DismissSuggestion(ctx, actor, docID)
	if err != nil {
		h.fail(ctx, w, "dismiss suggestion failed", err, "document_id", docID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc, actor.Role))
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (lifecycle.Actor, bool) {
	actor, err := lifecycle.ActorFromContext(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return lifecycle.Actor{}, false
	}
	return actor, true
}

// target resolves the caller and the document named in the path.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (lifecycle.Actor, id.DocumentID, bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return lifecycle.Actor{}, id.DocumentID{}, false
	}
	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid document id"))
		return lifecycle.Actor{}, id.DocumentID{}, false
	}
	return actor, docID, true
}

// stale and invalid-transition outcomes are expected under normal use and
// logged at warn.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	args := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, attrs...)
	if dErrors.HTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, args...)
	} else {
		h.logger.WarnContext(ctx, msg, args...)
	}
	httputil.WriteError(w, err)
}
