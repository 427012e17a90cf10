package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-book-agent/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
	ttl    time.Duration
}

// NewProducer 创建消息生产者，ttl 大于 0 时每次写入都会刷新流的过期时间
func NewProducer(client *redis.Client, maxLen int64, ttl time.Duration) *Producer {
	if maxLen <= 0 {
		maxLen = 2000
	}
	return &Producer{client: client, maxLen: maxLen, ttl: ttl}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := p.client.Pipeline()
	add := pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"data": string(data)},
	})
	if p.ttl > 0 {
		pipe.Expire(ctx, string(stream), p.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		metrics.RedisStreamPublished.WithLabelValues(msg.Type, "error").Inc()
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RedisStreamPublished.WithLabelValues(msg.Type, "success").Inc()
	id := add.Val()
	span.SetAttributes(attribute.String("stream.message_id", id))
	return id, nil
}

// History 按写入顺序读取流中的全部消息
func (p *Producer) History(ctx context.Context, stream Stream) ([]*Message, error) {
	ctx, span := tracer.Start(ctx, "producer.History",
		trace.WithAttributes(attribute.String("stream", string(stream))))
	defer span.End()

	entries, err := p.client.XRange(ctx, string(stream), "-", "+").Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	out := make([]*Message, 0, len(entries))
	for _, e := range entries {
		raw, ok := e.Values["data"].(string)
		if !ok {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		out = append(out, &msg)
	}
	return out, nil
}
