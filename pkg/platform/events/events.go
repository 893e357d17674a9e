// Package events carries domain events from the services that emit them to
// downstream consumers. Publishers are transport-agnostic; the envelope holds
// the JSON payload plus the routing keys every sink needs.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	id "exportdocs/pkg/domain"
)

// Envelope is one published event.
type Envelope struct {
	ID             id.EventID        `json:"id"`
	Type           string            `json:"type"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	AggregateType  string            `json:"aggregate_type"`
	AggregateID    string            `json:"aggregate_id"`
	OccurredAt     time.Time         `json:"occurred_at"`
	Payload        json.RawMessage   `json:"payload"`
}

// New wraps payload in an envelope with a fresh id.
func New(eventType string, orgID id.OrganizationID, aggregateType, aggregateID string, occurredAt time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		ID:             id.NewEventID(),
		Type:           eventType,
		OrganizationID: orgID,
		AggregateType:  aggregateType,
		AggregateID:    aggregateID,
		OccurredAt:     occurredAt,
		Payload:        raw,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Publisher delivers envelopes. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, events ...Envelope) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, ...Envelope) error { return nil }
