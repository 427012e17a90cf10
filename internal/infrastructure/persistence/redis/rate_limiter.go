package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// slidingWindow 在一次往返内完成清理、计数与占位
// KEYS[1] 窗口键；ARGV: 当前毫秒、窗口毫秒、上限、成员
var slidingWindow = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window * 2)
return 1
`)

// RateLimiter 基于 ZSET 的滑动窗口限流器
// 供应商调用与 HTTP 入口共用，键空间由调用方区分
type RateLimiter struct {
	client *Client
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow 占用窗口内的一个名额，名额用尽时返回 false
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	defer span.End()
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
	)

	now := time.Now().UnixMilli()
	res, err := slidingWindow.Run(ctx, l.client.rdb, []string{key},
		now,
		window.Milliseconds(),
		limit,
		strconv.FormatInt(now, 10)+"-"+uuid.NewString(),
	).Int()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	allowed := res == 1
	span.SetAttributes(attribute.Bool("ratelimit.allowed", allowed))
	return allowed, nil
}

// BuildVendorRateLimitKey 供应商调用的限流键
func BuildVendorRateLimitKey(vendor string) string {
	return "ratelimit:vendor:" + vendor
}
