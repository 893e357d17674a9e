package events

// Event types emitted by the document and shipment services.
const (
	TypeDocumentStateChanged      = "document-state-changed"
	TypeShipmentComplianceChanged = "shipment-compliance-changed"
	TypeShipmentArchived          = "shipment-archived"
)

// Aggregate types used as envelope routing keys.
const (
	AggregateDocument = "document"
	AggregateShipment = "shipment"
)

// DocumentStateChanged is the payload of TypeDocumentStateChanged.
type DocumentStateChanged struct {
	DocumentID   string `json:"document_id"`
	ShipmentID   string `json:"shipment_id"`
	DocumentType string `json:"document_type"`
	From         string `json:"from"`
	To           string `json:"to"`
	Trigger      string `json:"trigger"`
	ActorID      string `json:"actor_id,omitempty"`
	Role         string `json:"role"`
	Version      int    `json:"version"`
}

// ShipmentComplianceChanged is the payload of TypeShipmentComplianceChanged.
type ShipmentComplianceChanged struct {
	ShipmentID   string   `json:"shipment_id"`
	Reference    string   `json:"reference"`
	From         string   `json:"from"`
	To           string   `json:"to"`
	Missing      []string `json:"missing,omitempty"`
	ErrorCount   int      `json:"error_count"`
	WarningCount int      `json:"warning_count"`
}

// ShipmentArchived is the payload of TypeShipmentArchived.
type ShipmentArchived struct {
	ShipmentID string `json:"shipment_id"`
	Reference  string `json:"reference"`
	ActorID    string `json:"actor_id"`
	Version    int    `json:"version"`
}
