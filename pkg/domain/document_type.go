package domain

import (
	"strings"

	dErrors "exportdocs/pkg/domain-errors"
)

// DocumentType identifies the kind of regulatory artifact attached to a shipment.
// Invariant: the value must be one of the supported document types.
//
// Usage: construct via ParseDocumentType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type DocumentType string

const (
	DocumentBillOfLading          DocumentType = "bill_of_lading"
	DocumentCertificateOfOrigin   DocumentType = "certificate_of_origin"
	DocumentCommercialInvoice     DocumentType = "commercial_invoice"
	DocumentPackingList           DocumentType = "packing_list"
	DocumentVeterinaryCertificate DocumentType = "veterinary_certificate"
	DocumentPhytosanitary         DocumentType = "phytosanitary_certificate"
	DocumentDueDiligence          DocumentType = "due_diligence_statement"
	DocumentExportDeclaration     DocumentType = "export_declaration"
)

// validDocumentTypes is the single source of truth for supported document types.
var validDocumentTypes = map[DocumentType]bool{
	DocumentBillOfLading:          true,
	DocumentCertificateOfOrigin:   true,
	DocumentCommercialInvoice:     true,
	DocumentPackingList:           true,
	DocumentVeterinaryCertificate: true,
	DocumentPhytosanitary:         true,
	DocumentDueDiligence:          true,
	DocumentExportDeclaration:     true,
}

// ParseDocumentType constructs a DocumentType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseDocumentType(s string) (DocumentType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document type cannot be empty")
	}
	t := DocumentType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid document type: "+s)
	}
	return t, nil
}

// IsValid checks if the document type is one of the supported enum values.
func (t DocumentType) IsValid() bool {
	return validDocumentTypes[t]
}

// IsExtractable reports whether container extraction runs for this type.
func (t DocumentType) IsExtractable() bool {
	return t == DocumentBillOfLading
}

func (t DocumentType) String() string {
	return string(t)
}
