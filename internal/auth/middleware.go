package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const claimsContextKey = "auth.claims"

// RequireAuth validates the Bearer token and stores the claims on the
// request context. Requests without a valid token are rejected.
func RequireAuth(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// ActorID returns the authenticated user's ID, if any.
func ActorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return uuid.Nil, false
	}
	claims, ok := v.(*Claims)
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}

// ActorClaims returns the full claims of the authenticated user.
func ActorClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
