// Package lifecycle defines the document state machine: states, actor roles
// and the guarded transition table. Everything here is pure; persistence of a
// transition (and the compare-and-swap that protects it) belongs to the stores.
package lifecycle

import (
	"strings"

	dErrors "exportdocs/pkg/domain-errors"
)

// State is a document's lifecycle state.
type State string

const (
	StateDraft            State = "DRAFT"
	StateUploaded         State = "UPLOADED"
	StateValidated        State = "VALIDATED"
	StateComplianceOK     State = "COMPLIANCE_OK"
	StateComplianceFailed State = "COMPLIANCE_FAILED"
	StateLinked           State = "LINKED"
	StateArchived         State = "ARCHIVED"
)

// States lists every state in lifecycle order.
var States = []State{
	StateDraft,
	StateUploaded,
	StateValidated,
	StateComplianceOK,
	StateComplianceFailed,
	StateLinked,
	StateArchived,
}

func (s State) IsValid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateArchived
}

// SatisfiesRequirement reports whether a document in s counts toward its
// shipment's required-document set. Archived documents no longer count.
func (s State) SatisfiesRequirement() bool {
	return s == StateComplianceOK || s == StateLinked
}

func (s State) String() string {
	return string(s)
}

// ParseState accepts the canonical upper-case name, case-insensitively.
func ParseState(s string) (State, error) {
	state := State(strings.ToUpper(strings.TrimSpace(s)))
	if !state.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown document state: "+s)
	}
	return state, nil
}
