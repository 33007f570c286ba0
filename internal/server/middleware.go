package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/sitesell/sitesell/internal/identity"
)

const (
	userIDHeader   = "X-User-ID"
	userRoleHeader = "X-User-Role"
)

// ActorMiddleware trusts the identity headers asserted by the edge
// proxy and materializes them as the request actor. Requests without a
// user id stay anonymous; handlers that need an actor reject them.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if rawID == "" {
			c.Next()
			return
		}
		userID, err := snowflake.ParseString(rawID)
		if err != nil {
			AbortWithError(c, identity.ErrUnauthenticated)
			return
		}

		actor := identity.Actor{
			UserID: userID,
			Role:   identity.ParseRole(c.GetHeader(userRoleHeader)),
		}
		c.Request = c.Request.WithContext(identity.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireRole gates a route group on the actor's role before the
// handler runs. Admin passes every gate.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := identity.Require(c.Request.Context(), roles...); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
