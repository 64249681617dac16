package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(testJWTSecret, time.Hour)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "jane@x.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.GetUserID())
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "jane@x.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
	assert.Equal(t, time.Hour, svc.TTL())
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(testJWTSecret, time.Hour)
	valid, err := svc.GenerateToken(uuid.New(), "")
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		token  string
		reason string
	}{
		{name: "empty", token: "", reason: "token string is empty"},
		{name: "garbage", token: "not.a.jwt", reason: "malformed token"},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("other-secret"), jwt.RegisteredClaims{Subject: uuid.NewString(), ExpiresAt: future}), reason: "invalid token signature"},
		{name: "other hmac alg", token: sign(jwt.SigningMethodHS512, []byte(testJWTSecret), jwt.RegisteredClaims{Subject: uuid.NewString(), ExpiresAt: future})},
		{name: "none alg", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{Subject: uuid.NewString(), ExpiresAt: future})},
		{name: "subject not a uuid", token: sign(jwt.SigningMethodHS256, []byte(testJWTSecret), jwt.RegisteredClaims{Subject: "service-role", ExpiresAt: future}), reason: "subject is not a user id"},
		{name: "tampered", token: valid[:len(valid)-2] + "xx", reason: "invalid token signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			assert.Nil(t, claims)
			var unauthorized *ErrUnauthorized
			require.ErrorAs(t, err, &unauthorized)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, unauthorized.Reason)
			}
		})
	}
}

func TestJWTService_Expiry(t *testing.T) {
	svc := NewJWTService(testJWTSecret, time.Minute)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateToken(uuid.New(), "")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(30 * time.Second) }
	_, err = svc.ValidateToken(token)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token)
	var unauthorized *ErrUnauthorized
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, "token expired", unauthorized.Reason)
}

func TestClaimsAsTokenValidator(t *testing.T) {
	svc := NewJWTService(testJWTSecret, time.Hour)
	userID := uuid.New()
	token, err := svc.GenerateToken(userID, "")
	require.NoError(t, err)

	got, err := svc.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got.GetUserID())
}
