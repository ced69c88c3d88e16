package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nayochev/schedule-arranger/pkg/metrics"
)

// Metrics 记录请求数与延迟；route 使用路由模板，避免 ID 造成标签爆炸
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
