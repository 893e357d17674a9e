// Package handler exposes read-only reference lookups: the documents a
// commodity code requires and a dry run of field extraction.
package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"exportdocs/internal/compliance"
	"exportdocs/internal/extraction"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/platform/httputil"
	"exportdocs/pkg/requestcontext"
)

// Matrix answers requirement lookups.
type Matrix interface {
	RequirementsFor(code string) compliance.Requirement
}

// Handler serves requirement lookups and extraction previews.
type Handler struct {
	matrix    Matrix
	threshold float64
	logger    *slog.Logger
}

// New constructs the handler. threshold is the container suggestion
// threshold reported in previews.
func New(matrix Matrix, threshold float64, logger *slog.Logger) *Handler {
	return &Handler{matrix: matrix, threshold: threshold, logger: logger}
}

// Register mounts the reference endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/requirements/{commodityCode}", h.HandleRequirements)
	r.Post("/extraction/preview", h.HandlePreview)
}

// HandleRequirements handles GET /requirements/{commodityCode}. Unknown codes
// answer with the baseline set and classified=false.
func (h *Handler) HandleRequirements(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "commodityCode"))
	if len(code) > maxCodeLength {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "commodity code must be 16 characters or less"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequirement(h.matrix.RequirementsFor(code)))
}

// HandlePreview handles POST /extraction/preview. Nothing is stored.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[PreviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	resp := &PreviewResponse{
		DocumentType: req.parsedType.String(),
		Fields:       extraction.ParseFields(req.parsedType, req.Text),
	}
	if req.parsedType.IsExtractable() {
		c := extraction.ExtractContainer(req.Text)
		resp.Container = &c
		resp.Suggestible = c.Suggestible(h.threshold)
	}
	h.logger.DebugContext(ctx, "extraction preview",
		"request_id", requestID,
		"document_type", resp.DocumentType,
		"suggestible", resp.Suggestible,
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

const (
	maxCodeLength    = 16
	maxPreviewLength = 1 << 20
)

// PreviewRequest is the HTTP request body for POST /extraction/preview.
type PreviewRequest struct {
	DocumentType string `json:"document_type"`
	Text         string `json:"text"`

	parsedType id.DocumentType
}

func (r *PreviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Text) > maxPreviewLength {
		return dErrors.New(dErrors.CodeValidation, "text exceeds 1 MiB")
	}
	t, err := id.ParseDocumentType(r.DocumentType)
	if err != nil {
		return err
	}
	r.parsedType = t
	return nil
}

// PreviewResponse is what extraction would record for the text.
type PreviewResponse struct {
	DocumentType string                      `json:"document_type"`
	Fields       extraction.Fields           `json:"fields"`
	Container    *extraction.ContainerResult `json:"container,omitempty"`
	Suggestible  bool                        `json:"suggestible"`
}

// RequirementResponse describes what a commodity code requires.
type RequirementResponse struct {
	Code                 string             `json:"code"`
	MatchedPrefix        string             `json:"matched_prefix,omitempty"`
	Description          string             `json:"description,omitempty"`
	Classified           bool               `json:"classified"`
	DueDiligenceRequired bool               `json:"due_diligence_required"`
	DueDiligenceExcluded bool               `json:"due_diligence_excluded"`
	RequiredDocuments    []string           `json:"required_documents"`
	Fields               []FieldRequirement `json:"field_requirements,omitempty"`
}

// FieldRequirement is one type-specific field demand.
type FieldRequirement struct {
	DocumentType string   `json:"document_type"`
	Field        string   `json:"field"`
	OneOf        []string `json:"one_of,omitempty"`
}

// FromRequirement converts a matrix answer to an HTTP response.
func FromRequirement(req compliance.Requirement) *RequirementResponse {
	resp := &RequirementResponse{
		Code:                 req.Code,
		MatchedPrefix:        req.Prefix,
		Description:          req.Description,
		Classified:           req.Classified,
		DueDiligenceRequired: req.DueDiligenceRequired,
		DueDiligenceExcluded: req.DueDiligenceExcluded,
		RequiredDocuments:    make([]string, 0, len(req.RequiredDocuments)),
	}
	for _, t := range req.RequiredDocuments {
		resp.RequiredDocuments = append(resp.RequiredDocuments, t.String())
	}
	for _, f := range req.Fields {
		resp.Fields = append(resp.Fields, FieldRequirement{
			DocumentType: f.DocumentType.String(),
			Field:        string(f.Field),
			OneOf:        f.OneOf,
		})
	}
	return resp
}
