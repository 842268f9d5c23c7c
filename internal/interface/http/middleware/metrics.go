package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/booklend/pkg/metrics"
)

// Metrics HTTP请求耗时统计中间件
// 使用FullPath(路由模板)而非原始URL作为label,避免高基数
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, path, time.Since(start))
	}
}
