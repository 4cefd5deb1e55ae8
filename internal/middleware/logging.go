package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware 请求日志中间件
// 认证或 API Key 中间件解析出的租户一并打出，便于按租户排查
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		tenant := GetTenantID(c)
		if tenant == "" {
			tenant = "-"
		}
		log.Printf("[%s] %s %s | Tenant: %s | Status: %d | Latency: %v",
			c.Request.Method,
			path,
			query,
			tenant,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
