package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/finsim/auth-service/internal/tokens"
)

// IdentityKey is the gin context key holding the verified session identity.
const IdentityKey = "identity"

// TokenVerifier is the minimal interface the middleware depends on
type TokenVerifier interface {
	Verify(ctx context.Context, credential string) (*tokens.Identity, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer session tokens
// using the provided verifier. Denials map to 401; store faults map to 503 so
// callers can retry instead of treating the session as invalid.
func AuthMiddleware(ver TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		credential, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		identity, err := ver.Verify(c.Request.Context(), credential)
		if err != nil {
			if errors.Is(err, tokens.ErrStoreUnavailable) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
				return
			}
			if ice, isDenial := tokens.AsInvalid(err); isDenial {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "reason": ice.Reason})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}
