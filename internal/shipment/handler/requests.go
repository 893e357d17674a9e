package handler

import (
	"strings"

	"exportdocs/internal/extraction"
	"exportdocs/internal/shipment/service"
	dErrors "exportdocs/pkg/domain-errors"
)

const (
	maxReferenceLength     = 64
	maxCommodityCodeLength = 16
	maxContainerLength     = 32
)

// CreateShipmentRequest is the HTTP request body for POST /shipments.
type CreateShipmentRequest struct {
	Reference         string         `json:"reference"`
	CommodityCode     string         `json:"commodity_code"`
	DeclaredWeight    *WeightRequest `json:"declared_weight,omitempty"`
	DeclaredContainer string         `json:"declared_container,omitempty"`

	// Parsed values (populated by Validate)
	parsedWeight *extraction.Quantity
}

// WeightRequest is a declared quantity with its unit as written.
type WeightRequest struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateShipmentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.Reference) > 4*maxReferenceLength {
		return dErrors.New(dErrors.CodeValidation, "reference must be 64 characters or less")
	}
	if len(r.CommodityCode) > maxCommodityCodeLength {
		return dErrors.New(dErrors.CodeValidation, "commodity_code must be 16 characters or less")
	}
	if len(r.DeclaredContainer) > maxContainerLength {
		return dErrors.New(dErrors.CodeValidation, "declared_container must be 32 characters or less")
	}

	r.Reference = strings.TrimSpace(r.Reference)
	if r.Reference == "" {
		return dErrors.New(dErrors.CodeValidation, "reference is required")
	}
	if len(r.Reference) > maxReferenceLength {
		return dErrors.New(dErrors.CodeValidation, "reference must be 64 characters or less")
	}
	r.CommodityCode = strings.TrimSpace(r.CommodityCode)
	r.DeclaredContainer = strings.TrimSpace(r.DeclaredContainer)

	if r.DeclaredWeight != nil {
		if r.DeclaredWeight.Value < 0 {
			return dErrors.New(dErrors.CodeValidation, "declared_weight.value must not be negative")
		}
		unit, ok := extraction.ParseUnit(r.DeclaredWeight.Unit)
		if !ok {
			return dErrors.New(dErrors.CodeValidation, "declared_weight.unit is not a known unit")
		}
		r.parsedWeight = &extraction.Quantity{Value: r.DeclaredWeight.Value, Unit: unit}
	}
	return nil
}

// Input converts the validated request for the service.
func (r *CreateShipmentRequest) Input() service.CreateInput {
	return service.CreateInput{
		Reference:         r.Reference,
		CommodityCode:     r.CommodityCode,
		DeclaredWeight:    r.parsedWeight,
		DeclaredContainer: r.DeclaredContainer,
	}
}
