package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pal-track-api/internal/service"
)

// Metrics records latency and status for every request. Unmatched routes
// fall back to the raw URL path so 404s still show up, grouped per path.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
