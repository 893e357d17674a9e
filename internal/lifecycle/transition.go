package lifecycle

import (
	"errors"
	"fmt"

	"exportdocs/pkg/platform/sentinel"
)

// Trigger names the event that drives a transition.
type Trigger string

const (
	TriggerAttach     Trigger = "attach"
	TriggerFormatPass Trigger = "format_check_passed"
	TriggerApprove    Trigger = "approve"
	TriggerReject     Trigger = "reject"
	TriggerResubmit   Trigger = "resubmit"
	TriggerLink       Trigger = "link"
	TriggerArchive    Trigger = "archive"
)

// Facts are the validator and aggregator results a precondition may consult.
// Callers compute them from the current snapshot before attempting a transition.
type Facts struct {
	// BlockingErrors counts ERROR issues attributed to the document.
	BlockingErrors int
	// RequirementsSatisfied is true when every required document type of the
	// shipment has a COMPLIANCE_OK or LINKED document.
	RequirementsSatisfied bool
	// AutoFail allows the system role to move VALIDATED documents with errors
	// to COMPLIANCE_FAILED.
	AutoFail bool
}

// Precondition rejects a role-permitted transition based on snapshot facts.
// It returns an empty string when the transition may proceed.
type Precondition func(role Role, facts Facts) string

// Rule is one row of the transition table.
type Rule struct {
	From         State
	To           State
	Trigger      Trigger
	Roles        []Role
	Precondition Precondition
}

func (r Rule) allows(role Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

func requireNoErrors(_ Role, f Facts) string {
	if f.BlockingErrors > 0 {
		return fmt.Sprintf("document has %d blocking validation error(s)", f.BlockingErrors)
	}
	return ""
}

func requireErrors(role Role, f Facts) string {
	if f.BlockingErrors == 0 {
		return "document has no blocking validation errors"
	}
	if role == RoleSystem && !f.AutoFail {
		return "automatic failure is disabled"
	}
	return ""
}

func requireSatisfied(_ Role, f Facts) string {
	if !f.RequirementsSatisfied {
		return "shipment has required document types not yet compliant"
	}
	return ""
}

// table is the single source of truth for permitted transitions and their guards.
var table = []Rule{
	{From: StateDraft, To: StateUploaded, Trigger: TriggerAttach, Roles: humanRoles},
	{From: StateUploaded, To: StateValidated, Trigger: TriggerFormatPass, Roles: []Role{RoleSystem}},
	{From: StateValidated, To: StateComplianceOK, Trigger: TriggerApprove, Roles: []Role{RoleCompliance}, Precondition: requireNoErrors},
	{From: StateValidated, To: StateComplianceFailed, Trigger: TriggerReject, Roles: []Role{RoleCompliance, RoleSystem}, Precondition: requireErrors},
	{From: StateComplianceFailed, To: StateValidated, Trigger: TriggerResubmit, Roles: []Role{RoleSystem}},
	{From: StateComplianceOK, To: StateLinked, Trigger: TriggerLink, Roles: []Role{RoleCompliance}, Precondition: requireSatisfied},
	{From: StateLinked, To: StateArchived, Trigger: TriggerArchive, Roles: []Role{RoleAdmin}},
}

// Rules returns a copy of the transition table.
func Rules() []Rule {
	out := make([]Rule, len(table))
	copy(out, table)
	return out
}

func lookup(from, to State) (Rule, bool) {
	for _, r := range table {
		if r.From == from && r.To == to {
			return r, true
		}
	}
	return Rule{}, false
}

// CanTransition reports whether role may move a document from one state to
// another. It checks the table edge and role guard only; snapshot facts are
// checked by Check.
func CanTransition(role Role, from, to State) bool {
	r, ok := lookup(from, to)
	return ok && r.allows(role)
}

// TriggerFor returns the trigger of the (from, to) edge.
func TriggerFor(from, to State) (Trigger, bool) {
	r, ok := lookup(from, to)
	return r.Trigger, ok
}

// Next lists the states reachable from s by role.
func Next(role Role, from State) []State {
	var out []State
	for _, r := range table {
		if r.From == from && r.allows(role) {
			out = append(out, r.To)
		}
	}
	return out
}

// ErrInvalidTransition matches every TransitionError via errors.Is.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrStaleState is returned when a transition's compare-and-swap lost a race.
var ErrStaleState = sentinel.ErrStaleState

// TransitionError describes a rejected transition attempt.
type TransitionError struct {
	From   State
	To     State
	Role   Role
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s by %s: %s", e.From, e.To, e.Role, e.Reason)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Check validates a single-step transition against the table, the role guard
// and the edge's precondition.
func Check(role Role, from, to State, facts Facts) error {
	r, ok := lookup(from, to)
	if !ok {
		reason := "no such transition"
		if from.IsTerminal() {
			reason = "state is terminal"
		}
		return &TransitionError{From: from, To: to, Role: role, Reason: reason}
	}
	if !r.allows(role) {
		return &TransitionError{From: from, To: to, Role: role, Reason: "role not permitted"}
	}
	if r.Precondition != nil {
		if reason := r.Precondition(role, facts); reason != "" {
			return &TransitionError{From: from, To: to, Role: role, Reason: reason}
		}
	}
	return nil
}
