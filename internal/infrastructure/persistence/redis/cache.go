package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Cache 以 JSON 存取的 KV 缓存
type Cache struct {
	client *Client
}

// NewCache 创建缓存
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// GetJSON 读取 key 并解码到 dst，未命中返回 false 且不报错
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	ctx, span := tracer.Start(ctx, "cache.GetJSON")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	raw, err := c.client.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return false, nil
	case err != nil:
		span.RecordError(err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON 编码 value 写入 key
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "cache.SetJSON")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// HashKey 由前缀与各部分摘要组成键，各部分之间以 0 字节分隔
func HashKey(prefix string, parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}
