package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	"github.com/noah-isme/subsidy-console-gateway/pkg/config"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

// AuthService validates access tokens issued by the identity provider.
type AuthService struct {
	secret []byte
	logger *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{secret: []byte(cfg.Secret), logger: logger}
}

// ValidateToken parses and validates an access token returning the claims.
// Tokens without an enterprise are rejected because every console session is enterprise scoped.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.EnterpriseID == "" {
		s.logger.Debug("rejecting token without enterprise", zap.String("user_id", claims.UserID))
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token is not scoped to an enterprise")
	}

	return claims, nil
}
