package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/auth"
	"taskboard/internal/models"
)

const claimsKey = "claims"

const (
	roleAuthor = models.RoleAuthor
	roleSolver = models.RoleSolver
)

// requireAuth verifies the bearer token and attaches the caller's
// identity to the request context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.respondError(c, apperr.Authentication("authentication token required"))
			c.Abort()
			return
		}

		claims, err := s.auth.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.respondError(c, err)
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// requireRole rejects callers whose role does not match. It must run
// after requireAuth.
func (s *Server) requireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims.Role != role {
			s.respondError(c, apperr.Authorization("access denied, required role: "+string(role)))
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentClaims returns the identity requireAuth stored on the context.
func currentClaims(c *gin.Context) auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(auth.Claims); ok {
			return claims
		}
	}
	return auth.Claims{}
}
