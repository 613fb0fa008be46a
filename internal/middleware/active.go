package middleware

import (
	"context" // Lookup context
	"errors"  // Error matching

	"etuition/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// UserLookup finds a stored user by email
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ActiveUserMiddleware checks the caller's stored status on each request.
// Blocked users are refused even while their token is still valid; callers
// without a stored record pass through.
func ActiveUserMiddleware(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.GetUserByEmail(c.Request.Context(), Email(c)) // Fetch user from store
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			_ = c.Error(err)
			c.Abort()
			return
		}
		// Check if user has been blocked by an admin
		if user != nil && user.Status == domain.UserBlocked {
			deny(c, domain.ErrForbidden, "Account is blocked")
			return
		}
		c.Next()
	}
}
