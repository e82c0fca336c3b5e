package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subsidy-console-gateway/internal/middleware"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func tokenFromContext(c *gin.Context) string {
	return c.GetString(middleware.ContextTokenKey)
}

func channelParam(c *gin.Context) (models.SubsidyChannel, error) {
	channel, ok := models.ParseSubsidyChannel(c.Param("channel"))
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "unknown subsidy channel")
	}
	return channel, nil
}
