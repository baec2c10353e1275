package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/infra/security"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := security.NewTokenService("secret", "hirely", time.Hour)

	token, err := svc.Issue("user-1", "admin")
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, []string{"admin"}, claims.Roles)
}

func TestTokenService_Rejects(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	signer := &security.TokenService{Secret: []byte("secret"), Issuer: "hirely", TTL: time.Hour, Now: func() time.Time { return issued }}
	token, err := signer.Issue("user-1")
	require.NoError(t, err)

	type testCase struct {
		name   string
		parser *security.TokenService
		token  string
	}

	tests := []testCase{
		{
			name:   "wrong secret",
			parser: &security.TokenService{Secret: []byte("other"), Issuer: "hirely", Now: func() time.Time { return issued }},
			token:  token,
		},
		{
			name:   "expired",
			parser: &security.TokenService{Secret: []byte("secret"), Issuer: "hirely", Now: func() time.Time { return issued.Add(2 * time.Hour) }},
			token:  token,
		},
		{
			name:   "wrong issuer",
			parser: &security.TokenService{Secret: []byte("secret"), Issuer: "elsewhere", Now: func() time.Time { return issued }},
			token:  token,
		},
		{
			name:   "garbage",
			parser: &security.TokenService{Secret: []byte("secret"), Now: func() time.Time { return issued }},
			token:  "not-a-jwt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parser.Parse(tt.token)
			assert.ErrorIs(t, err, security.ErrInvalidToken)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", security.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", security.BearerToken("bearer   abc "))
	assert.Equal(t, "", security.BearerToken("Basic abc"))
	assert.Equal(t, "", security.BearerToken(""))
}
