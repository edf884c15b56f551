package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/auth"
	"github.com/docport-io/docport/internal/models"
)

// identityKey is the gin context key the verified Identity is stored
// under.
const identityKey = "identity"

type AuthMiddleware struct {
	verifier *auth.Verifier
}

func NewAuthMiddleware(verifier *auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth verifies the bearer credential on every request and stores
// the resulting Identity in the gin context. Authorization decisions
// happen later, in the access router; this layer only answers "who".
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)

		identity, err := m.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			kind := apperrors.KindOf(err)
			c.JSON(kind.HTTPStatus(), gin.H{
				"error": gin.H{
					"code":   kind.String(),
					"reason": apperrors.ReasonOf(err),
				},
			})
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	// Bearer token format: "Bearer <token>"
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie
	}

	return ""
}

// IdentityFromContext returns the verified Identity set by RequireAuth.
func IdentityFromContext(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}
