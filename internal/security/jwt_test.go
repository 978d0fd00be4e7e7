package security

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m, err := NewJWTManager("secret", time.Minute, "harvester")
	require.NoError(t, err)

	token, err := m.Generate("ops", RoleOperator)
	require.NoError(t, err)

	claims, err := m.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "ops", claims.Subject)
	require.True(t, HasRole(claims, RoleOperator))
	require.False(t, HasRole(claims, RoleViewer))
}

func TestJWTManager_Rejects(t *testing.T) {
	m, err := NewJWTManager("secret", time.Minute, "harvester")
	require.NoError(t, err)

	other, err := NewJWTManager("other", time.Minute, "harvester")
	require.NoError(t, err)
	foreign, err := other.Generate("ops")
	require.NoError(t, err)

	wrongIssuer, err := NewJWTManager("secret", time.Minute, "someone-else")
	require.NoError(t, err)
	misissued, err := wrongIssuer.Generate("ops")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "ops"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"wrong issuer": misissued,
		"alg none":     none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Validate(token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTManager_Expired(t *testing.T) {
	m, err := NewJWTManager("secret", time.Minute, "")
	require.NoError(t, err)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Validate(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	_, err := NewJWTManager("", time.Minute, "")
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestHasRole_Admin(t *testing.T) {
	require.True(t, HasRole(&interfaces.Claims{Roles: []string{RoleAdmin}}, RoleOperator))
}
