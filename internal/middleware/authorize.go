package middleware

import (
	"etuition/internal/domain" // Role enum and error taxonomy

	"github.com/gin-gonic/gin" // Gin web framework
)

// OwnerFunc extracts the email a request claims to act for
type OwnerFunc func(c *gin.Context) string

// PathEmail reads the owner email from a path parameter
func PathEmail(param string) OwnerFunc {
	return func(c *gin.Context) string { return c.Param(param) }
}

// QueryEmail reads the owner email from a query parameter
func QueryEmail(param string) OwnerFunc {
	return func(c *gin.Context) string { return c.Query(param) }
}

// Authorize admits callers holding role, and when owner is set, only callers
// whose token email matches the email the request names. Must run after
// JWTAuthMiddleware. An empty role admits any authenticated caller.
func Authorize(role domain.Role, owner OwnerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Role gate
		if role != "" && Role(c) != role {
			deny(c, domain.ErrForbidden, "Forbidden: "+string(role)+"s only")
			return
		}
		// Self-only gate
		if owner != nil && domain.NormalizeEmail(owner(c)) != Email(c) {
			deny(c, domain.ErrForbidden, "Forbidden: You can only access your own records")
			return
		}
		c.Next()
	}
}

// StudentOnly admits students
func StudentOnly() gin.HandlerFunc { return Authorize(domain.RoleStudent, nil) }

// TutorOnly admits tutors
func TutorOnly() gin.HandlerFunc { return Authorize(domain.RoleTutor, nil) }

// AdminOnly admits admins
func AdminOnly() gin.HandlerFunc { return Authorize(domain.RoleAdmin, nil) }

// SelfOnly admits any authenticated caller acting for their own email
func SelfOnly(owner OwnerFunc) gin.HandlerFunc { return Authorize("", owner) }
