package middleware

import (
	"strings" // String manipulation

	"etuition/internal/domain" // Role enum and error taxonomy
	"etuition/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by JWTAuthMiddleware
const (
	CtxEmail = "email"
	CtxRole  = "role"
)

// JWTAuthMiddleware validates bearer tokens and stores the caller's email and role
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		if authHeader == "" {
			deny(c, domain.ErrUnauthenticated, "Unauthorized access")
			return
		}
		// "Bearer <token>": the second segment must be present
		parts := strings.Fields(authHeader)
		if len(parts) < 2 || !strings.EqualFold(parts[0], "Bearer") {
			deny(c, domain.ErrUnauthenticated, "Unauthorized access")
			return
		}
		claims, err := utils.ParseJWT(parts[1], secret) // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			deny(c, domain.ErrUnauthenticated, "Unauthorized access: Invalid or expired token")
			return
		}
		c.Set(CtxEmail, claims.Email) // Store identity in context
		c.Set(CtxRole, claims.Role)   // Store role in context
		c.Next()                      // Proceed to the next handler
	}
}

// Email returns the authenticated caller's normalized email
func Email(c *gin.Context) string {
	return c.GetString(CtxEmail)
}

// Role returns the authenticated caller's role
func Role(c *gin.Context) domain.Role {
	v, _ := c.Get(CtxRole)
	role, _ := v.(domain.Role)
	return role
}
