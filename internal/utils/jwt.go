package utils

import (
	"errors" // Claim validation errors
	"time"   // Time for token expiration

	"etuition/internal/domain" // Role enum

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// ErrUnknownRole is returned for a well-signed token carrying a role outside the enum
var ErrUnknownRole = errors.New("token carries unknown role")

// JWT Claims
type Claims struct {
	Email                string      `json:"email"` // Identity the token was issued to
	Role                 domain.Role `json:"role"`  // Role looked up at issue time
	jwt.RegisteredClaims             // Standard JWT claims
}

// GenerateJWT creates a token binding email and role, valid for ttl
func GenerateJWT(email string, role domain.Role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	// Set token claims
	claims := Claims{
		Email: domain.NormalizeEmail(email), // Identity
		Role:  role,                         // Role
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expiry
			IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	// Reject roles outside the enum
	if !claims.Role.Valid() {
		return nil, ErrUnknownRole
	}
	return claims, nil
}
