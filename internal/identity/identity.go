package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Role is the coarse capability level of a request actor.
type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Actor is the authenticated principal asserted by the edge.
type Actor struct {
	UserID snowflake.ID
	Role   Role
}

// ActorContextKey is the request context key for the current actor.
type ActorContextKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorContextKey{}, actor)
}

// ActorFromContext returns the actor from context, if set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(ActorContextKey{}).(Actor)
	if !ok || actor.UserID == 0 {
		return Actor{}, false
	}
	return actor, true
}

// Require is the single capability check applied before every workflow
// entry point. Admin satisfies any role set.
func Require(ctx context.Context, roles ...Role) (Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return Actor{}, ErrUnauthenticated
	}
	if actor.Role == RoleAdmin || len(roles) == 0 {
		return actor, nil
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return Actor{}, ErrForbidden
}

// ParseRole normalizes a role string; unknown values map to buyer.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleCreator:
		return RoleCreator
	default:
		return RoleBuyer
	}
}
