package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/service/auth"
)

const ContextPrincipal = "principal"

// AuthMiddleware authenticates requests through the gate and enforces
// per-route requirements.
type AuthMiddleware struct {
	gate auth.AuthService
}

func NewAuthMiddleware(gate auth.AuthService) *AuthMiddleware {
	return &AuthMiddleware{gate: gate}
}

// Authenticate resolves the bearer token to a principal. Every failure
// gets the same response body.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := m.gate.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": apperrors.UnauthenticatedMessage,
			})
			return
		}
		c.Set(ContextPrincipal, principal)
		c.Next()
	}
}

// Require enforces a requirement on an already authenticated request.
func (m *AuthMiddleware) Require(req auth.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := Principal(c)
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": apperrors.UnauthenticatedMessage,
			})
			return
		}
		if err := m.gate.Authorize(principal, req); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated caller, or nil on public routes.
func Principal(c *gin.Context) *auth.Principal {
	value, exists := c.Get(ContextPrincipal)
	if !exists {
		return nil
	}
	principal, ok := value.(*auth.Principal)
	if !ok {
		return nil
	}
	return principal
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
