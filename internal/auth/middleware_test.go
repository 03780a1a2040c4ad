package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"projecthub/internal/auth"
	"projecthub/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func protectedHandler(t *testing.T) http.Handler {
	t.Helper()
	mw := auth.Middleware(testSecret, logger.New())
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.UserID(r.Context())
		assert.True(t, ok)
		assert.Equal(t, 42, id)

		email, ok := auth.Email(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "admin@example.com", email)

		w.WriteHeader(http.StatusOK)
	}))
}

func TestMiddleware(t *testing.T) {
	t.Run("ValidToken", func(t *testing.T) {
		token, err := auth.NewAccessToken(42, "admin@example.com", "admin", testSecret, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		protectedHandler(t).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
		w := httptest.NewRecorder()

		protectedHandler(t).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MalformedHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()

		protectedHandler(t).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := auth.NewAccessToken(42, "admin@example.com", "admin", "other-secret", time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		protectedHandler(t).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		token, err := auth.NewAccessToken(42, "admin@example.com", "admin", testSecret, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		protectedHandler(t).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
