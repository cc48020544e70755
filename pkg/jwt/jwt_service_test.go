package jwt

import (
	"nutrition-catalog/domain"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret")
	token, err := svc.GenerateToken(domain.Identity{ID: "u1", Email: "u1@example.com"}, time.Minute)
	require.NoError(t, err)

	user, err := svc.GetIdentityByToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{ID: "u1", Email: "u1@example.com", Role: domain.RoleUser}, user)
}

func TestGetIdentityByToken_Errors(t *testing.T) {
	svc := NewJWTService("secret")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtUserClaim{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.GetIdentityByToken(expired)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	other, err := NewJWTService("other").GenerateToken(domain.Identity{ID: "u1"}, time.Minute)
	require.NoError(t, err)
	_, err = svc.GetIdentityByToken(other)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = svc.GetIdentityByToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
