package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"villabay/internal/app/actor"
)

const actorContextKey = "villabay.actor"

// ActorMiddleware trusts the identity headers stamped by the API
// gateway in front of this service. Token verification happens there;
// this engine only consumes the resolved principal.
type ActorMiddleware struct{}

func (m ActorMiddleware) Handle(c *gin.Context) {
	uid := strings.TrimSpace(c.GetHeader("X-User-UID"))
	if uid == "" {
		c.Next()
		return
	}
	userType := actor.UserType(strings.ToLower(strings.TrimSpace(c.GetHeader("X-User-Type"))))
	if userType == "" {
		userType = actor.TypeGuest
	}
	verified := strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Email-Verified")), "true")
	c.Set(actorContextKey, actor.Actor{
		UserUID:       uid,
		Type:          userType,
		EmailVerified: verified,
	})
	c.Next()
}

func currentActor(c *gin.Context) (actor.Actor, bool) {
	val, exists := c.Get(actorContextKey)
	if !exists {
		return actor.Actor{}, false
	}
	a, ok := val.(actor.Actor)
	return a, ok
}

func requireActor(c *gin.Context) (actor.Actor, bool) {
	a, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return actor.Actor{}, false
	}
	return a, true
}
