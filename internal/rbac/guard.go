package rbac

import (
	"context"

	"github.com/medpoint/clinic_auth/internal/models"
)

// Guard answers the per-request authorization question: may any of the
// token's roles perform this action on this resource?
type Guard struct {
	Resolver *Resolver
}

// Check admits as soon as one role grants the action; roles after the first
// match are not consulted. It never mutates the map.
func (g *Guard) Check(ctx context.Context, roles []string, resource models.Resource, action models.Action) (bool, error) {
	acl, err := g.Resolver.Map(ctx)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if acl.Allows(role, resource, action) {
			return true, nil
		}
	}
	return false, nil
}
