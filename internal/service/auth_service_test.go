package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	"github.com/noah-isme/subsidy-console-gateway/pkg/config"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

const testSecret = "console-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: testSecret}, nil)
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), models.JWTClaims{
		UserID:       "user-1",
		Email:        "admin@example.com",
		Role:         models.RoleEnterpriseAdmin,
		EnterpriseID: "ent-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ent-1", claims.EnterpriseID)
	assert.Equal(t, models.RoleEnterpriseAdmin, claims.Role)
}

func TestAuthServiceRejectsInvalidTokens(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: testSecret}, nil)

	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), models.JWTClaims{
		UserID:       "user-1",
		EnterpriseID: "ent-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	_, err := svc.ValidateToken(expired)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"), models.JWTClaims{UserID: "user-1", EnterpriseID: "ent-1"})
	_, err = svc.ValidateToken(wrongKey)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	wrongMethod := signToken(t, jwt.SigningMethodHS512, []byte(testSecret), models.JWTClaims{UserID: "user-1", EnterpriseID: "ent-1"})
	_, err = svc.ValidateToken(wrongMethod)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRequiresEnterpriseScope(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: testSecret}, nil)
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), models.JWTClaims{UserID: "user-1"})

	_, err := svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
