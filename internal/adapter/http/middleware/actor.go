package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const actorHeader = "X-Member-ID"

// ActorMiddleware extracts the acting member from the request header set by
// the authentication layer upstream of this service.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(actorHeader))
		if actor != "" {
			c.Set("actor", actor)
		}
		c.Next()
	}
}

func GetActor(c *gin.Context) string {
	if actor, exists := c.Get("actor"); exists {
		if s, ok := actor.(string); ok {
			return s
		}
	}
	return ""
}
