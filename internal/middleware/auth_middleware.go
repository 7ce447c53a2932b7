// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"primefit-service/internal/pkg/jwt"
	"primefit-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxCustomerID = "customer_id"
	ctxJTI        = "jti"
	ctxIsAdmin    = "is_admin"
	ctxClaims     = "claims"
)

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
	}
}

// Auth is the base authentication middleware that validates JWT tokens
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			status := response.StatusFor(err)
			if status != http.StatusForbidden && status != http.StatusInternalServerError {
				status = http.StatusUnauthorized
			}
			response.Error(c, status, "invalid or expired token", err)
			return
		}

		c.Set(ctxCustomerID, claims.CustomerID)
		c.Set(ctxJTI, claims.ID)
		c.Set(ctxIsAdmin, claims.IsAdmin)
		c.Set(ctxClaims, claims)

		c.Next()
	}
}

// RequireAdmin rejects non-admin callers.
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Forbidden(c, "admin access required")
			return
		}
		c.Next()
	}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireAdmin)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireAdmin(),
	}
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	// Fallback to query param (use with caution in production)
	return c.Query("token")
}

// GetCustomerID returns the authenticated customer's id
func GetCustomerID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ctxCustomerID)
	if !exists {
		return "", false
	}

	idStr, ok := id.(string)
	return idStr, ok
}

// GetJTI returns the token id of the request
func GetJTI(c *gin.Context) (string, bool) {
	jti, exists := c.Get(ctxJTI)
	if !exists {
		return "", false
	}

	jtiStr, ok := jti.(string)
	return jtiStr, ok
}

// GetClaims returns the validated token claims
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	claims, exists := c.Get(ctxClaims)
	if !exists {
		return nil, false
	}

	typed, ok := claims.(*jwt.Claims)
	return typed, ok
}
