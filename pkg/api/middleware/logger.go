package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger returns a middleware that logs requests. Credential headers are
// never logged.
func Logger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)

		log.Info("request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", latency,
		)
	}
}
