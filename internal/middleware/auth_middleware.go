package middleware

import (
	"net/http"
	"strings"

	"tableside/internal/domain"
	"tableside/internal/services"
	"tableside/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// AccessTokenCookie is set by the login handlers. Browsers send it on EventSource
// requests, which cannot carry an Authorization header.
const AccessTokenCookie = "tableside_token"

// TokenResolver turns an access token into the caller it was issued to.
type TokenResolver interface {
	Principal(token string) (domain.Principal, error)
}

func AuthMiddleware(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := resolver.Principal(extractToken(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		ctx := services.WithPrincipal(c.Request.Context(), p)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireStaff must run after AuthMiddleware.
func RequireStaff() gin.HandlerFunc {
	return requirePrincipal(domain.Principal.IsStaff)
}

func RequireCustomer() gin.HandlerFunc {
	return requirePrincipal(domain.Principal.IsCustomer)
}

func requirePrincipal(allowed func(domain.Principal) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := services.PrincipalFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}
		if !allowed(p) {
			c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// extractToken checks the Authorization header, then the access_token query
// parameter, then the session cookie.
func extractToken(c *gin.Context) string {
	if token := extractBearer(c); token != "" {
		return token
	}
	if token := strings.TrimSpace(c.Query("access_token")); token != "" {
		return token
	}
	if token, err := c.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(token)
	}
	return ""
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
