package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/subsidy-console-gateway/internal/models"
)

// Audit records who performed an admin action once the request succeeds.
// Entries go to the structured log under the "audit" logger name.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("session_id", c.Param("id")),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.GetHeader("User-Agent")),
		}
		if channel := c.Param("channel"); channel != "" {
			fields = append(fields, zap.String("channel", channel))
		}
		if requestID := c.Param("requestId"); requestID != "" {
			fields = append(fields, zap.String("subsidy_request_id", requestID))
		}
		if value, ok := c.Get(ContextUserKey); ok {
			if claims, ok := value.(*models.JWTClaims); ok {
				fields = append(fields,
					zap.String("user_id", claims.UserID),
					zap.String("enterprise_id", claims.EnterpriseID),
					zap.String("role", string(claims.Role)),
				)
			}
		}
		audit.Info("admin action", fields...)
	}
}
