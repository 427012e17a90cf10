package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"z-book-agent/pkg/errors"
	"z-book-agent/pkg/logger"
)

// Recovery 捕获处理器 panic
// SSE 响应已开始写出时改为追加一条 error 事件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			logger.Error(ctx, "handler panicked", fmt.Errorf("%v", rec),
				"method", c.Request.Method,
				"route", routeOf(c),
				"stack", string(debug.Stack()),
			)

			body := gin.H{
				"code":    errors.ErrInternalError.Code,
				"message": errors.ErrInternalError.Message,
			}
			if c.Writer.Written() {
				c.SSEvent("error", body)
				c.Writer.Flush()
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(errors.ErrInternalError.HTTPStatus, body)
		}()

		c.Next()
	}
}

// routeOf 返回路由模板，未匹配时退回原始路径
func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}
