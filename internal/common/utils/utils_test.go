package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Action string `validate:"required,oneof=like pass"`
	Dwell  int64  `validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(sample{Action: "like"}))

	err := ValidateStruct(sample{Action: "wink", Dwell: -1})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{
		"Action must be one of [like pass]",
		"Dwell must be greater than or equal to 0",
	}, verr.Fields)
}

// signToken signs claims the way the auth service does.
func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func accessClaims(userID string, ttl time.Duration) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"user_id":  userID,
		"username": "river",
		"type":     "access",
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
}

func TestJWTRoundTrip(t *testing.T) {
	claims := accessClaims("42", time.Hour)
	claims["role"] = "service"
	token := signToken(t, claims, "secret")

	parsed, err := ValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), parsed.UserID)
	assert.Equal(t, "river", parsed.Username)
	assert.Equal(t, "access", parsed.Type)
	assert.Equal(t, "service", parsed.Role)

	_, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestExpiredJWTRejected(t *testing.T) {
	token := signToken(t, accessClaims("1", -time.Minute), "secret")

	_, err := ValidateJWT(token, "secret")
	assert.Error(t, err)
}

func TestJWTRejectsMalformedUserID(t *testing.T) {
	token := signToken(t, accessClaims("not-a-number", time.Hour), "secret")

	_, err := ValidateJWT(token, "secret")
	assert.Error(t, err)
}

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, http.StatusBadRequest, "bad")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "bad", body.Error)
}
