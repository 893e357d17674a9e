package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "exportdocs/pkg/domain-errors"
)

// Typed identifiers keep organization, shipment, document and actor IDs from
// being swapped at call sites. Parse* functions are the trust boundary: they
// reject empty, malformed and nil UUIDs.
type (
	OrganizationID uuid.UUID
	ShipmentID     uuid.UUID
	DocumentID     uuid.UUID
	ActorID        uuid.UUID
	EventID        uuid.UUID
)

// maxIDLength bounds input before handing it to uuid.Parse, which accepts
// several encodings (urn:uuid:, braces) up to 45 characters.
const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return u, nil
}

func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := parseUUID("organization_id", s)
	return OrganizationID(u), err
}

func ParseShipmentID(s string) (ShipmentID, error) {
	u, err := parseUUID("shipment_id", s)
	return ShipmentID(u), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID("document_id", s)
	return DocumentID(u), err
}

func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID("actor_id", s)
	return ActorID(u), err
}

func NewOrganizationID() OrganizationID { return OrganizationID(uuid.New()) }
func NewShipmentID() ShipmentID         { return ShipmentID(uuid.New()) }
func NewDocumentID() DocumentID         { return DocumentID(uuid.New()) }
func NewActorID() ActorID               { return ActorID(uuid.New()) }
func NewEventID() EventID               { return EventID(uuid.New()) }

func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id ShipmentID) String() string     { return uuid.UUID(id).String() }
func (id DocumentID) String() string     { return uuid.UUID(id).String() }
func (id ActorID) String() string        { return uuid.UUID(id).String() }
func (id EventID) String() string        { return uuid.UUID(id).String() }

func (id OrganizationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ShipmentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps JSON payloads and log attributes in canonical UUID form.

func (id OrganizationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ShipmentID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id DocumentID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id ActorID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }

func (id *OrganizationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ShipmentID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DocumentID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ActorID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EventID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
