package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubValidator struct {
	userID string
	err    error
}

func (s *stubValidator) ValidateJWT(token string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.userID, nil
}

func runAuth(validator TokenValidator, authHeader string) (*httptest.ResponseRecorder, string) {
	var seenUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	AuthMiddleware(validator)(next).ServeHTTP(rec, req)
	return rec, seenUserID
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	rec, userID := runAuth(&stubValidator{userID: "alice"}, "Bearer good-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", userID)
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	rec, _ := runAuth(&stubValidator{userID: "alice"}, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	for _, header := range []string{"good-token", "Basic good-token", "Bearer"} {
		rec, _ := runAuth(&stubValidator{userID: "alice"}, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q must be rejected", header)
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	rec, _ := runAuth(&stubValidator{err: fmt.Errorf("bad signature")}, "Bearer bad-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserIDWithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUserID(req.Context()))
}
