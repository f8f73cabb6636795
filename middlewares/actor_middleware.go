package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qrdine/qrdine-server/services"
	"github.com/qrdine/qrdine-server/utils"
)

const ActorKey = "actor"

// GuestTokenHeader carries the opaque guest session token minted at scan.
const GuestTokenHeader = "X-Guest-Token"

// ActorMiddleware resolves the caller into a Guest or Staff actor. A
// valid staff JWT wins; anything else is treated as a guest, with or
// without a session token.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := utils.ParseToken(tokenString)
			if err != nil {
				utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
				c.Abort()
				return
			}
			c.Set(ActorKey, services.Staff{
				UserID:  claims.UserID,
				PlaceID: claims.PlaceID,
				Role:    claims.Role,
			})
			c.Next()
			return
		}

		c.Set(ActorKey, services.Guest{Token: c.GetHeader(GuestTokenHeader)})
		c.Next()
	}
}

// StaffRequired guards management routes. Must run after ActorMiddleware.
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ActorKey)
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
			c.Abort()
			return
		}
		if _, ok := value.(services.Staff); !ok {
			utils.RespondError(c, http.StatusForbidden, errors.New("staff access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentActor fetches the resolved actor, defaulting to an anonymous
// guest so handlers never see a nil actor.
func CurrentActor(c *gin.Context) services.Actor {
	value, exists := c.Get(ActorKey)
	if !exists {
		return services.Guest{}
	}
	actor, ok := value.(services.Actor)
	if !ok {
		return services.Guest{}
	}
	return actor
}
