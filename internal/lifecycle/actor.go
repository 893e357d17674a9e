package lifecycle

import (
	"context"

	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/requestcontext"
)

// Actor is whoever drives a transition: an authenticated person of one
// organization, or the platform acting for that organization.
type Actor struct {
	ID             id.ActorID
	OrganizationID id.OrganizationID
	Role           Role
}

// System returns the platform actor for an organization.
func System(orgID id.OrganizationID) Actor {
	return Actor{OrganizationID: orgID, Role: RoleSystem}
}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

// ActorFromContext converts the authenticated caller stored by the auth
// middleware into an Actor. Unknown roles are forbidden.
func ActorFromContext(ctx context.Context) (Actor, error) {
	info := requestcontext.Actor(ctx)
	if info.ID.IsNil() || info.OrganizationID.IsNil() {
		return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	role, err := ParseRole(info.Role)
	if err != nil {
		return Actor{}, dErrors.New(dErrors.CodeForbidden, "role not permitted")
	}
	return Actor{ID: info.ID, OrganizationID: info.OrganizationID, Role: role}, nil
}
