package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hirely/internal/app/authz"
	"hirely/internal/infra/security"
)

const principalContextKey = "hirely.principal"

// AuthMiddleware resolves bearer tokens into an authz.Principal on both the
// gin context and the request context. Requests without a valid token pass
// through anonymous; handlers decide whether that is allowed.
type AuthMiddleware struct {
	Tokens *security.TokenService
	Logger *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := security.BearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Tokens == nil {
		c.Next()
		return
	}
	claims, err := m.Tokens.Parse(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	p := authz.Principal{UserID: claims.Subject, Roles: claims.Roles}
	c.Set(principalContextKey, p)
	c.Request = c.Request.WithContext(authz.WithPrincipal(c.Request.Context(), p))
	c.Next()
}

func currentPrincipal(c *gin.Context) (authz.Principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return authz.Principal{}, false
	}
	p, ok := val.(authz.Principal)
	return p, ok
}

func requireRole(c *gin.Context, role string) (authz.Principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok || p.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return authz.Principal{}, false
	}
	if role != "" && !p.HasRole(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return authz.Principal{}, false
	}
	return p, true
}
