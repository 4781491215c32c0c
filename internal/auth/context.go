package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/roomhub/meeting-room-backend/internal/identity"
)

// GetActor returns the authenticated actor stored by AuthRequired.
func GetActor(c *gin.Context) (identity.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return identity.Actor{}, false
	}
	actor, ok := v.(identity.Actor)
	return actor, ok
}
