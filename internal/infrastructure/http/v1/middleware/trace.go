package middleware

import (
	"github.com/gin-gonic/gin"

	"storesync/internal/core/appctx"
)

const requestIDHeader = "X-Request-ID"

// Trace assigns each request a trace context. An inbound X-Request-ID is
// honored so callers can correlate retries.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		trace := appctx.NewTraceContext()
		if rid := c.GetHeader(requestIDHeader); rid != "" {
			trace.RequestID = rid
		}

		ctx := appctx.WithTrace(c.Request.Context(), trace)
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", trace.RequestID)
		c.Header(requestIDHeader, trace.RequestID)

		c.Next()
	}
}
