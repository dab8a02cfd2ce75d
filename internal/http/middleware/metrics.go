package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"swiftcab/internal/observability"
)

// Metrics records request counts and latency per route template. c.FullPath
// keeps the label cardinality bounded; unmatched requests fall under "".
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		method := c.Request.Method
		path := c.FullPath()
		status := strconv.Itoa(c.Writer.Status())
		observability.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		observability.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
	}
}
