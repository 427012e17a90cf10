package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"z-book-agent/pkg/metrics"
)

// Metrics 采集 HTTP 指标，skip 中的路由（探活、指标端点）不计入
func Metrics(skip ...string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		ignored[p] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := ignored[route]; ok {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		begin := time.Now()

		if n := c.Request.ContentLength; n > 0 {
			metrics.HTTPRequestSize.WithLabelValues(method, route).Observe(float64(n))
		}

		c.Next()

		// SSE 请求的耗时即整个工作流的耗时
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(begin).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		if n := c.Writer.Size(); n > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(n))
		}
	}
}
