package api

import (
	"net/http"
	"strings"

	"github.com/consultancy-portal-api/internal/auth"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	claimsKey    = "claims"
	apiKeyHeader = "X-Admin-Key"
)

// requireRoles authenticates the request and allows it only for the given roles
func requireRoles(access service.AccessService, log zerolog.Logger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := ""
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			bearer = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}

		claims, err := access.Authenticate(bearer, c.GetHeader(apiKeyHeader))
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="api"`)
			respondError(c, log, models.ErrUnauthorized)
			c.Abort()
			return
		}

		if !hasRole(claims, roles) {
			respondError(c, log, models.ErrForbidden)
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func hasRole(claims *auth.Claims, roles []string) bool {
	for _, r := range roles {
		if claims.Role == r {
			return true
		}
	}
	return false
}

// claimsFrom returns the claims stored by requireRoles
func claimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// bodyLimit caps the request body size
func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
