package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"storesync/pkg/logger"
)

// Logger logs HTTP requests with timing and status.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString("request_id"),
		}
		if query != "" {
			fields = append(fields, "query", query)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		entry := log.WithContext(c.Request.Context())
		switch {
		case c.Writer.Status() >= 500:
			entry.Errorw("request completed", fields...)
		case c.Writer.Status() >= 400:
			entry.Warnw("request completed", fields...)
		default:
			entry.Infow("request completed", fields...)
		}
	}
}
