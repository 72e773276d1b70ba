package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/models"
)

// Audit logs an audit entry for every successful request on the route.
// Failed requests are left to the access log.
func Audit(logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("resource_id", id))
		}
		if value, ok := c.Get(ContextUserKey); ok {
			if claims, ok := value.(*models.JWTClaims); ok {
				fields = append(fields, zap.String("actor", claims.Email), zap.String("actor_role", string(claims.Role)))
			}
		}
		logger.Info("audit", fields...)
	}
}
