package redis

import (
	"context"
	"time"

	"z-book-agent/internal/domain/entity"
	"z-book-agent/pkg/logger"
)

const outlineKeyPrefix = "synthesis:outline"

// OutlineCache 按素材内容摘要缓存合成大纲
type OutlineCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewOutlineCache 创建大纲缓存
func NewOutlineCache(cache *Cache, ttl time.Duration) *OutlineCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &OutlineCache{cache: cache, ttl: ttl}
}

// Key 以素材摘要构建缓存键
func (c *OutlineCache) Key(digest []byte) string {
	return HashKey(outlineKeyPrefix, digest)
}

// Load 读取缓存，读取失败视为未命中
func (c *OutlineCache) Load(ctx context.Context, key string) (*entity.SynthesisOutline, bool) {
	var out entity.SynthesisOutline
	ok, err := c.cache.GetJSON(ctx, key, &out)
	if err != nil {
		logger.Warn(ctx, "outline cache read failed", "key", key, "error", err.Error())
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &out, true
}

// Store 写入缓存，失败只记录日志
func (c *OutlineCache) Store(ctx context.Context, key string, outline *entity.SynthesisOutline) {
	if err := c.cache.SetJSON(ctx, key, outline, c.ttl); err != nil {
		logger.Warn(ctx, "outline cache write failed", "key", key, "error", err.Error())
	}
}
