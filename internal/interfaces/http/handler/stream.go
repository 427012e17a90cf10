// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"
)

// setSSEHeaders 设置 SSE 响应头
func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// writeEvent 写出一个 SSE 事件并立即刷新
func writeEvent(c *gin.Context, name string, data any) {
	c.SSEvent(name, data)
	c.Writer.Flush()
}
