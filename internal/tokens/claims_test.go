package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return token
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()

	return signToken(t, Claims{
		Username: "miguo",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
}

func TestIsExpired_PastExp(t *testing.T) {
	token := tokenExpiringAt(t, time.Now().Add(-1*time.Hour))

	assert.True(t, IsExpired(token))
}

func TestIsExpired_FutureExp(t *testing.T) {
	token := tokenExpiringAt(t, time.Now().Add(1*time.Hour))

	assert.False(t, IsExpired(token))
}

func TestIsExpiredAt_Boundary(t *testing.T) {
	exp := time.Unix(1_700_000_000, 0)
	token := tokenExpiringAt(t, exp)

	assert.False(t, IsExpiredAt(token, exp.Add(-1*time.Second)))
	assert.True(t, IsExpiredAt(token, exp), "exp itself counts as expired")
	assert.True(t, IsExpiredAt(token, exp.Add(time.Second)))
}

func TestIsExpired_MissingExp(t *testing.T) {
	token := signToken(t, Claims{Username: "miguo"})

	assert.True(t, IsExpired(token))
}

func TestIsExpired_Unparseable(t *testing.T) {
	malformed := []string{
		"",
		"not-a-token",
		"only.two",
		"a.b.c",
		"eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.sig",
		"eyJhbGciOiJIUzI1NiJ9.eyJleHAiOiJzb29uIn0.sig",
	}

	for _, token := range malformed {
		assert.True(t, IsExpired(token), "token %q should be treated as expired", token)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   string
	}{
		{name: "prefers name", claims: Claims{Name: "Guoliang", Username: "miguo", Email: "m@example.com"}, want: "Guoliang"},
		{name: "falls back to username", claims: Claims{Username: "miguo", Email: "m@example.com"}, want: "miguo"},
		{name: "falls back to email", claims: Claims{Email: "m@example.com"}, want: "m@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(signToken(t, tt.claims)))
		})
	}

	assert.Empty(t, DisplayName("garbage"))
}
