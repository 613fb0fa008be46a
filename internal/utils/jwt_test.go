package utils

import (
	"context"
	"testing"
	"time"

	"etuition/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	tok, err := GenerateJWT(" Tutor@Example.com ", domain.RoleTutor, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "tutor@example.com", claims.Email)
	assert.Equal(t, domain.RoleTutor, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	tok, err := GenerateJWT("a@example.com", domain.RoleStudent, "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(tok, "other")
	assert.Error(t, err)
}

func TestParseJWTRejectsExpired(t *testing.T) {
	tok, err := GenerateJWT("a@example.com", domain.RoleStudent, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(tok, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseJWTRejectsUnknownRole(t *testing.T) {
	tok, err := GenerateJWT("a@example.com", domain.Role("Owner"), "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(tok, "secret")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestCacheHelpersToleratesNilClient(t *testing.T) {
	var dest map[string]any
	found, err := GetCache(context.Background(), nil, "k", &dest)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetCache(context.Background(), nil, "k", 1, time.Second))
	assert.NoError(t, DeleteCachePrefix(context.Background(), nil, "k"))
}
