package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jm, err := NewJWTManager("test-secret")
	require.NoError(t, err)

	r := gin.New()
	protected := r.Group("/", RequireAuth(jm))
	protected.GET("/whoami", func(c *gin.Context) {
		userID, _ := c.Get(UserIDKey)
		username, _ := c.Get(UsernameKey)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "username": username})
	})
	protected.GET("/admin", RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	optional := r.Group("/", OptionalAuth(jm))
	optional.GET("/public", func(c *gin.Context) {
		_, authenticated := c.Get(UserIDKey)
		c.JSON(http.StatusOK, gin.H{"authenticated": authenticated})
	})

	return r, jm
}

func get(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r, jm := newAuthRouter(t)

	t.Run("missing header", func(t *testing.T) {
		w := get(r, "/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("malformed header", func(t *testing.T) {
		w := get(r, "/whoami", "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w := get(r, "/whoami", "Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token sets user context", func(t *testing.T) {
		token, err := jm.GenerateToken(context.Background(), "user-1", "user@example.com", []string{"user"}, time.Hour)
		require.NoError(t, err)

		w := get(r, "/whoami", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-1")
		assert.Contains(t, w.Body.String(), "user@example.com")
	})
}

func TestRequireRole(t *testing.T) {
	r, jm := newAuthRouter(t)

	t.Run("role present", func(t *testing.T) {
		token, err := jm.GenerateToken(context.Background(), "user-1", "admin@example.com", []string{"user", "admin"}, time.Hour)
		require.NoError(t, err)

		w := get(r, "/admin", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("role missing", func(t *testing.T) {
		token, err := jm.GenerateToken(context.Background(), "user-2", "user@example.com", []string{"user"}, time.Hour)
		require.NoError(t, err)

		w := get(r, "/admin", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "FORBIDDEN")
	})
}

func TestOptionalAuth(t *testing.T) {
	r, jm := newAuthRouter(t)

	t.Run("no token passes through", func(t *testing.T) {
		w := get(r, "/public", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authenticated":false`)
	})

	t.Run("invalid token passes through unauthenticated", func(t *testing.T) {
		w := get(r, "/public", "Bearer junk")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authenticated":false`)
	})

	t.Run("valid token authenticates", func(t *testing.T) {
		token, err := jm.GenerateToken(context.Background(), "user-1", "user@example.com", nil, time.Hour)
		require.NoError(t, err)

		w := get(r, "/public", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authenticated":true`)
	})
}

func TestExtractBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"Bearer   abc123  ", "abc123"},
		{"bearer abc123", ""},
		{"Basic abc123", ""},
		{"Bearer", ""},
	}

	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			c.Request.Header.Set("Authorization", tc.header)
		}
		assert.Equal(t, tc.want, extractBearerToken(c), "header %q", tc.header)
	}
}
