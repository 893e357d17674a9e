package models

import (
	"time"

	id "exportdocs/pkg/domain"
)

type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionAccepted  SuggestionStatus = "accepted"
	SuggestionDismissed SuggestionStatus = "dismissed"
)

// Suggestion is an extracted container identifier offered for a person to
// accept or dismiss.
type Suggestion struct {
	ContainerID string           `json:"container_id"`
	Confidence  float64          `json:"confidence"`
	Status      SuggestionStatus `json:"status"`
	DecidedBy   id.ActorID       `json:"decided_by,omitempty"`
	DecidedAt   *time.Time       `json:"decided_at,omitempty"`
}
