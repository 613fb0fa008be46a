package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"etuition/internal/domain"
	"etuition/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func token(t *testing.T, email string, role domain.Role, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.GenerateJWT(email, role, secret, ttl)
	require.NoError(t, err)
	return tok
}

func newRouter() *gin.Engine {
	r := gin.New()
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"email": Email(c), "role": Role(c)}) }
	auth := JWTAuthMiddleware(secret)
	r.GET("/student", auth, StudentOnly(), ok)
	r.GET("/admin", auth, AdminOnly(), ok)
	r.GET("/stats/:email", auth, Authorize(domain.RoleTutor, PathEmail("email")), ok)
	r.GET("/mine", auth, Authorize(domain.RoleStudent, QueryEmail("email")), ok)
	r.GET("/role/:email", auth, SelfOnly(PathEmail("email")), ok)
	return r
}

func do(r http.Handler, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthFailsClosed(t *testing.T) {
	r := newRouter()
	cases := map[string]string{
		"missing header":  "",
		"missing segment": "Bearer",
		"garbage token":   "Bearer not-a-token",
		"expired token":   "Bearer " + token(t, "s@example.com", domain.RoleStudent, -time.Minute),
		"wrong scheme":    "Basic " + token(t, "s@example.com", domain.RoleStudent, time.Hour),
	}
	for name, authz := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, do(r, "/student", authz).Code)
		})
	}
}

func TestRefusalsUseTaxonomyStatuses(t *testing.T) {
	r := newRouter()
	w := do(r, "/student", "")
	assert.Equal(t, StatusFor(domain.ErrUnauthenticated), w.Code)
	assert.JSONEq(t, `{"message":"Unauthorized access"}`, w.Body.String())

	w = do(r, "/student", "Bearer not-a-token")
	assert.JSONEq(t, `{"message":"Unauthorized access: Invalid or expired token"}`, w.Body.String())

	w = do(r, "/student", "Bearer "+token(t, "t@example.com", domain.RoleTutor, time.Hour))
	assert.Equal(t, StatusFor(domain.ErrForbidden), w.Code)
	assert.JSONEq(t, `{"message":"Forbidden: Students only"}`, w.Body.String())

	w = do(r, "/role/other@example.com", "Bearer "+token(t, "t@example.com", domain.RoleTutor, time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"Forbidden: You can only access your own records"}`, w.Body.String())
}

func TestRoleGateRejectsOtherRoles(t *testing.T) {
	r := newRouter()
	for _, role := range []domain.Role{domain.RoleTutor, domain.RoleAdmin} {
		w := do(r, "/student", "Bearer "+token(t, "x@example.com", role, time.Hour))
		assert.Equal(t, http.StatusForbidden, w.Code, role)
	}
	for _, role := range []domain.Role{domain.RoleStudent, domain.RoleTutor} {
		w := do(r, "/admin", "Bearer "+token(t, "x@example.com", role, time.Hour))
		assert.Equal(t, http.StatusForbidden, w.Code, role)
	}
	w := do(r, "/student", "Bearer "+token(t, "s@example.com", domain.RoleStudent, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOwnerGateComparesNormalizedEmail(t *testing.T) {
	r := newRouter()
	tutor := "Bearer " + token(t, "tutor@example.com", domain.RoleTutor, time.Hour)

	assert.Equal(t, http.StatusOK, do(r, "/stats/Tutor@Example.com", tutor).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/stats/other@example.com", tutor).Code)

	student := "Bearer " + token(t, "s@example.com", domain.RoleStudent, time.Hour)
	assert.Equal(t, http.StatusOK, do(r, "/mine?email=s@example.com", student).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/mine", student).Code)

	assert.Equal(t, http.StatusOK, do(r, "/role/tutor@example.com", tutor).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/role/s@example.com", tutor).Code)
}

func TestErrorHandlerMapsTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("Invalid status value: %w", domain.ErrValidation), http.StatusBadRequest},
		{domain.ErrDuplicate, http.StatusConflict},
		{domain.ErrForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := gin.New()
		r.Use(ErrorHandler())
		r.GET("/", func(c *gin.Context) { _ = c.Error(tc.err) })
		w := do(r, "/", "")
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		if tc.status == http.StatusInternalServerError {
			assert.NotContains(t, w.Body.String(), "boom")
		}
	}
}

type lookupFunc func(email string) (*domain.User, error)

func (f lookupFunc) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return f(email)
}

func TestActiveUserRefusesBlockedAccounts(t *testing.T) {
	users := lookupFunc(func(email string) (*domain.User, error) {
		switch email {
		case "blocked@example.com":
			return &domain.User{Email: email, Status: domain.UserBlocked}, nil
		case "active@example.com":
			return &domain.User{Email: email, Status: domain.UserActive}, nil
		}
		return nil, domain.ErrNotFound
	})
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/me", JWTAuthMiddleware(secret), ActiveUserMiddleware(users), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusForbidden, do(r, "/me", "Bearer "+token(t, "blocked@example.com", domain.RoleStudent, time.Hour)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/me", "Bearer "+token(t, "active@example.com", domain.RoleStudent, time.Hour)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/me", "Bearer "+token(t, "unknown@example.com", domain.RoleStudent, time.Hour)).Code)
}
