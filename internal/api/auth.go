package api

import (
	"errors"   // Error matching
	"fmt"      // Error wrapping
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"etuition/internal/domain" // Importing domain models
	"etuition/internal/store"  // Data store
	"etuition/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// errUserExists answers a second registration of the same email
var errUserExists = fmt.Errorf("user already exists: %w", domain.ErrConflict)

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Name     string `json:"name"`                           // Display name
	Email    string `json:"email" binding:"required,email"` // Email must be provided
	PhotoURL string `json:"photoURL"`                       // Avatar
	Phone    string `json:"phone"`                          // Contact number
	Role     string `json:"role"`                           // Student (default) or Tutor
}

// TokenRequest asks for a token for a logged-in email
type TokenRequest struct {
	Email string `json:"email" binding:"required"` // Email must be provided
}

// AuthResponse carries an issued token
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

// RegisterHandler stores a new user; an existing email is 409
func RegisterHandler(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		role := domain.RoleStudent // Default role
		if req.Role != "" {
			r, ok := domain.ParseRole(req.Role)
			// Admins are appointed, never self-registered
			if !ok || r == domain.RoleAdmin {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be Student or Tutor"})
				return
			}
			role = r
		}
		// Check if user already exists
		if _, err := users.GetUserByEmail(c.Request.Context(), req.Email); err == nil {
			fail(c, errUserExists)
			return
		} else if !errors.Is(err, domain.ErrNotFound) {
			fail(c, err)
			return
		}
		user := domain.User{
			Name:      req.Name,
			Email:     req.Email,
			PhotoURL:  req.PhotoURL,
			Phone:     req.Phone,
			Role:      role,
			Status:    domain.UserActive,
			CreatedAt: time.Now(),
		}
		// Attempt to create the user; the unique index catches a racing registration
		if err := users.CreateUser(c.Request.Context(), &user); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				err = errUserExists
			}
			fail(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,    // User ID
			"email":   user.Email, // Email
			"role":    user.Role,  // Role
		}).Info("User registered")
		c.JSON(http.StatusOK, domain.InsertResult{Acknowledged: true, InsertedID: user.ID})
	}
}

// GetTokenHandler issues a token carrying the stored role of email
func GetTokenHandler(users store.Users, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Role comes from the store, never from the client
		user, err := users.GetUserByEmail(c.Request.Context(), req.Email)
		if err != nil {
			fail(c, fmt.Errorf("user: %w", err))
			return
		}
		token, err := utils.GenerateJWT(user.Email, user.Role, jwtSecret, ttl)
		if err != nil {
			fail(c, fmt.Errorf("issue token: %w", err))
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}

// UserRoleHandler returns the caller's stored role, "user" when unknown
func UserRoleHandler(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.GetUserByEmail(c.Request.Context(), c.Param("email"))
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"role": "user"})
			return
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"role": user.Role})
	}
}
