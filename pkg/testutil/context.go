package testutil

import (
	"net/http"

	id "exportdocs/pkg/domain"
	"exportdocs/pkg/requestcontext"
)

// WithActor puts the actor the bearer-token middleware would resolve on req.
func WithActor(req *http.Request, actorID id.ActorID, orgID id.OrganizationID, role string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), requestcontext.ActorInfo{
		ID:             actorID,
		OrganizationID: orgID,
		Role:           role,
	}))
}
