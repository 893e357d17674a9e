package lifecycle

import (
	"strings"

	dErrors "exportdocs/pkg/domain-errors"
)

// Role is the capability class of an actor triggering a transition.
type Role string

const (
	// RoleSupplier uploads documents; it may never approve them.
	RoleSupplier Role = "supplier"
	// RoleLogistics creates shipments and uploads their documents.
	RoleLogistics Role = "logistics"
	// RoleCompliance approves, rejects and links documents.
	RoleCompliance Role = "compliance"
	// RoleAdmin archives linked documents and shipments.
	RoleAdmin Role = "admin"
	// RoleSystem is the platform itself acting on upload and validation events.
	RoleSystem Role = "system"
)

var humanRoles = []Role{RoleSupplier, RoleLogistics, RoleCompliance, RoleAdmin}

func (r Role) IsValid() bool {
	return r == RoleSystem || r.IsHuman()
}

// IsHuman reports whether r belongs to an authenticated person rather than the platform.
func (r Role) IsHuman() bool {
	for _, h := range humanRoles {
		if r == h {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole validates a role claim. The system role is never accepted from
// external input.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsHuman() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
	return r, nil
}
