package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/estatecrm/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newRouter(m *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"subject_id": c.GetString(response.SubjectIDKey),
			"role":       c.GetString(response.RoleKey),
		})
	})
	r.GET("/admin", m.RequireAuth(), m.RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	m := NewAuthMiddleware("test-secret")
	r := newRouter(m)
	subject := uuid.NewString()

	token, err := m.IssueToken(subject, "", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)

	w := do(r, "/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), subject)
	require.Contains(t, w.Body.String(), `"role":"user"`)

	require.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	require.Equal(t, http.StatusUnauthorized, do(r, "/me", "not-a-jwt").Code)

	expired, err := m.IssueToken(subject, RoleAdmin, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, do(r, "/me", expired).Code)

	forged, err := NewAuthMiddleware("other-secret").IssueToken(subject, RoleAdmin, jwt.RegisteredClaims{})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, do(r, "/me", forged).Code)
}

func TestRequireRole(t *testing.T) {
	m := NewAuthMiddleware("test-secret")
	r := newRouter(m)

	agent, err := m.IssueToken(uuid.NewString(), RoleAgent, jwt.RegisteredClaims{})
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, do(r, "/admin", agent).Code)

	admin, err := m.IssueToken(uuid.NewString(), RoleAdmin, jwt.RegisteredClaims{})
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
}
