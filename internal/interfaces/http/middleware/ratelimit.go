// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"z-book-agent/pkg/errors"
	"z-book-agent/pkg/logger"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 是否启用限流
	Enabled bool
	// RequestsPerMinute 每个客户端每分钟请求数
	RequestsPerMinute int
	// KeyPrefix Redis Key 前缀
	KeyPrefix string
}

// RateLimiter 限流器接口，由 persistence/redis.RateLimiter 实现
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 按客户端 IP 与路由限流
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	// 如果未启用限流，返回空中间件
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ratelimit:api"
	}

	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := cfg.KeyPrefix + ":" + c.ClientIP() + ":" + path

		allowed, err := limiter.Allow(c.Request.Context(), key, cfg.RequestsPerMinute, time.Minute)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(errors.ErrTooManyRequests.HTTPStatus, gin.H{
				"code":     errors.ErrTooManyRequests.Code,
				"message":  errors.ErrTooManyRequests.Message,
				"trace_id": c.GetString("trace_id"),
			})
			return
		}

		c.Next()
	}
}
