package handler

import (
	"exportdocs/internal/document/models"
	"exportdocs/internal/lifecycle"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
)

// CreateDocumentRequest is the HTTP request body for
// POST /shipments/{shipmentID}/documents.
type CreateDocumentRequest struct {
	Type string `json:"type"`

	parsedType id.DocumentType
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateDocumentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	t, err := id.ParseDocumentType(r.Type)
	if err != nil {
		return err
	}
	r.parsedType = t
	return nil
}

func (r *CreateDocumentRequest) ParsedType() id.DocumentType {
	return r.parsedType
}

// TextRequest carries document text for attach and resubmit. Content is
// sanitized by the service; only the size is checked here.
type TextRequest struct {
	Text string `json:"text"`
}

func (r *TextRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Text) > models.MaxTextLength {
		return dErrors.New(dErrors.CodeValidation, "text exceeds 1 MiB")
	}
	return nil
}

// TransitionRequest is the HTTP request body for
// POST /documents/{documentID}/transitions.
type TransitionRequest struct {
	To string `json:"to"`

	parsedState lifecycle.State
}

func (r *TransitionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	state, err := lifecycle.ParseState(r.To)
	if err != nil {
		return err
	}
	r.parsedState = state
	return nil
}

func (r *TransitionRequest) ParsedState() lifecycle.State {
	return r.parsedState
}
