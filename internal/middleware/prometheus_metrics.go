package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orbitlabs/commune/backend/internal/metrics"
)

// PrometheusMetrics records request counts and latency per route.
// c.FullPath() keeps the label cardinality bounded: parameterized routes
// report their pattern, not the concrete URL.
func PrometheusMetrics() gin.HandlerFunc {
	m := metrics.Get()
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}
