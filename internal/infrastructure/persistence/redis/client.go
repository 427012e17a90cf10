// Package redis 提供 Redis 限流、缓存与日志流的基础客户端
package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"z-book-agent/internal/config"
)

var tracer = otel.Tracer("z-book-agent/redis")

// connectTimeout 启动时连通性检查的超时
const connectTimeout = 3 * time.Second

// Client Redis 客户端
type Client struct {
	rdb *redis.Client
}

// NewClient 按配置连接 Redis，连不上时返回错误，由调用方决定是否降级
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	c := &Client{rdb: redis.NewClient(options(cfg))}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.rdb.Ping(pingCtx).Err(); err != nil {
		_ = c.rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", c.rdb.Options().Addr, err)
	}
	return c, nil
}

func options(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// Redis 底层 go-redis 客户端，供日志流生产者使用
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close 关闭连接池
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck 就绪检查
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.HealthCheck")
	defer span.End()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
