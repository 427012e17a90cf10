package llm

import (
	"context"
	"time"

	"z-book-agent/internal/domain/entity"
	"z-book-agent/pkg/logger"
	"z-book-agent/pkg/metrics"
)

// Limiter 滑动窗口限流接口，由 Redis 限流器实现
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimitedProvider 在调用前检查本地配额
// 超出配额时返回限流错误，交由门面层按限流错误处理
type RateLimitedProvider struct {
	Provider

	limiter Limiter
	key     string
	limit   int
	window  time.Duration
}

// WithRateLimit 为适配器加上限流，limit 不大于 0 时原样返回
func WithRateLimit(p Provider, limiter Limiter, key string, limit int, window time.Duration) Provider {
	if limiter == nil || limit <= 0 {
		return p
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimitedProvider{Provider: p, limiter: limiter, key: key, limit: limit, window: window}
}

func (p *RateLimitedProvider) GenerateText(ctx context.Context, prompt entity.Prompt, opts entity.GenerateOptions) (string, error) {
	if err := p.acquire(ctx); err != nil {
		return "", err
	}
	return p.Provider.GenerateText(ctx, prompt, opts)
}

// GenerateImage 透传可选的图片能力
func (p *RateLimitedProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	gen, ok := p.Provider.(ImageGenerator)
	if !ok {
		return "", &VendorError{Vendor: p.Vendor().Name, Body: "image generation not supported"}
	}
	if err := p.acquire(ctx); err != nil {
		return "", err
	}
	return gen.GenerateImage(ctx, prompt)
}

// Unwrap 返回被包装的适配器，用于探测可选能力
func (p *RateLimitedProvider) Unwrap() Provider {
	return p.Provider
}

func (p *RateLimitedProvider) acquire(ctx context.Context) error {
	ok, err := p.limiter.Allow(ctx, p.key, p.limit, p.window)
	if err != nil {
		// 限流存储不可用时放行
		logger.Warn(ctx, "rate limiter unavailable", "key", p.key, "error", err.Error())
		return nil
	}
	if !ok {
		name := p.Vendor().Name
		metrics.RateLimitRejected.WithLabelValues(string(name)).Inc()
		return &VendorError{Vendor: name, StatusCode: 429, Body: "local rate limit exceeded"}
	}
	return nil
}

// Capability 查找适配器的可选能力
// 最内层适配器必须实现该能力，外层包装也实现时优先使用外层，以保留限流
func Capability[T any](p Provider) (T, bool) {
	var zero T
	if p == nil {
		return zero, false
	}
	inner := p
	for {
		u, ok := inner.(interface{ Unwrap() Provider })
		if !ok {
			break
		}
		inner = u.Unwrap()
	}
	base, ok := inner.(T)
	if !ok {
		return zero, false
	}
	if outer, ok := p.(T); ok {
		return outer, true
	}
	return base, true
}
