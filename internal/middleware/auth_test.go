package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-chat-backend/internal/services"
)

func authedRequest(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()
	svc := services.NewUserService(nil, "test-secret")

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	AuthMiddleware(svc)(next).ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		assert.NotEmpty(t, gotUserID)
	}
	return rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	svc := services.NewUserService(nil, "test-secret")
	token, err := svc.GenerateJWT("u1")
	require.NoError(t, err)

	rec := authedRequest(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec := authedRequest(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	rec := authedRequest(t, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_ForgedToken(t *testing.T) {
	other := services.NewUserService(nil, "other-secret")
	token, err := other.GenerateJWT("u1")
	require.NoError(t, err)

	rec := authedRequest(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserID_EmptyWithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUserID(req.Context()))

	ctx := WithUserID(req.Context(), "u1")
	assert.Equal(t, "u1", GetUserID(ctx))
}
