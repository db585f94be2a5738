package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"mise/internal/core/actor"
	"mise/internal/core/apperror"
)

// TokenValidator validates an access token and returns the acting identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (actor.Actor, error)
}

// Auth middleware validates JWT tokens and resolves the actor.
// Handlers read the actor from the gin context; core services receive
// it as an explicit argument.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		act, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		// Stored in request context for logging enrichment too
		ctx := actor.WithActor(c.Request.Context(), act)
		c.Request = c.Request.WithContext(ctx)

		c.Set("actor", act)

		c.Next()
	}
}

// GetActor returns the actor resolved by Auth.
func GetActor(c *gin.Context) (actor.Actor, bool) {
	v, exists := c.Get("actor")
	if !exists {
		return actor.Actor{}, false
	}
	act, ok := v.(actor.Actor)
	return act, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
