package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type tokenOpts struct {
	tokenType string
	role      string
	secret    string
}

// signToken mints a token shaped like the auth service's.
func signToken(t *testing.T, opts tokenOpts) string {
	t.Helper()
	if opts.tokenType == "" {
		opts.tokenType = "access"
	}
	if opts.secret == "" {
		opts.secret = testSecret
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  "42",
		"username": "sam",
		"type":     opts.tokenType,
		"iat":      now.Unix(),
		"exp":      now.Add(time.Hour).Unix(),
	}
	if opts.role != "" {
		claims["role"] = opts.role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(opts.secret))
	require.NoError(t, err)
	return token
}

func protected(t *testing.T) http.Handler {
	m := NewMiddleware(testSecret)
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		username, _ := GetUsernameFromContext(r.Context())
		assert.Equal(t, int64(42), userID)
		assert.Equal(t, "sam", username)
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestAuthenticateAcceptsAccessToken(t *testing.T) {
	token := signToken(t, tokenOpts{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protected(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthenticateRejects(t *testing.T) {
	refreshToken := signToken(t, tokenOpts{tokenType: "refresh"})
	foreign := signToken(t, tokenOpts{secret: "other-secret"})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"refresh token", "Bearer " + refreshToken},
		{"wrong secret", "Bearer " + foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected(t).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireService(t *testing.T) {
	m := NewMiddleware(testSecret)
	h := m.Authenticate(m.RequireService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name  string
		token string
		code  int
	}{
		{"member token", signToken(t, tokenOpts{}), http.StatusForbidden},
		{"other role", signToken(t, tokenOpts{role: "moderator"}), http.StatusForbidden},
		{"service token", signToken(t, tokenOpts{role: RoleService}), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestRequireServiceWithoutAuthenticate(t *testing.T) {
	h := NewMiddleware(testSecret).RequireService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
