package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"z-book-agent/pkg/logger"
)

const (
	// RequestIDHeader 请求 ID 头
	RequestIDHeader = "X-Request-ID"
	// TraceIDHeader 追踪 ID 头
	TraceIDHeader = "X-Trace-ID"
	// RunIDHeader 工作流运行 ID 头
	RunIDHeader = "X-Run-ID"
)

// RequestID 透传或生成请求 ID，并写入日志上下文
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.RequestIDKey, id))
		c.Next()
	}
}

// Trace 为请求创建 span，untraced 中的路径（探活、指标端点）不追踪
func Trace(serviceName string, untraced ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(untraced))
	for _, p := range untraced {
		skip[p] = struct{}{}
	}
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		_, ok := skip[r.URL.Path]
		return !ok
	}))
}

// TraceContext 把当前 span 的 trace_id 与 span_id 写入日志上下文和响应头
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := trace.SpanContextFromContext(c.Request.Context())
		if !sc.IsValid() {
			c.Next()
			return
		}
		traceID, spanID := sc.TraceID().String(), sc.SpanID().String()
		c.Set("trace_id", traceID)
		c.Header(TraceIDHeader, traceID)

		ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(logger.WithContext(ctx, logger.SpanIDKey, spanID))
		c.Next()
	}
}
