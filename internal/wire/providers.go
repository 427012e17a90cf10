// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"z-book-agent/internal/application/agent"
	"z-book-agent/internal/application/generation"
	"z-book-agent/internal/application/synthesis"
	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/infrastructure/llm"
	"z-book-agent/internal/infrastructure/messaging"
	"z-book-agent/internal/infrastructure/persistence/redis"
	"z-book-agent/internal/interfaces/http/handler"
	"z-book-agent/internal/interfaces/http/middleware"
	"z-book-agent/pkg/logger"
)

// ProvideRedisClient 提供 Redis 客户端
// 未启用或不可达时返回 nil，限流、大纲缓存与日志流随之关闭
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(ctx, &cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, rate limiting and caching disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideVendorLimiter 供应商调用限流器
func ProvideVendorLimiter(client *redis.Client) llm.Limiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideAPILimiter HTTP 入口限流器
func ProvideAPILimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideProviders 为全部已知供应商创建适配器
func ProvideProviders(cfg *config.Config, limiter llm.Limiter) []llm.Provider {
	return llm.BuildProviders(&cfg.LLM, limiter)
}

// ProvideRegistry 注册全部适配器，没有任何已配置供应商不视为启动错误
func ProvideRegistry(ctx context.Context, providers []llm.Provider) (*generation.Registry, error) {
	registry, err := generation.NewRegistry(providers...)
	if err != nil {
		return nil, err
	}
	available := registry.AvailableVendors()
	if len(available) == 0 {
		logger.Warn(ctx, "no AI vendor is configured, generation requests will fail")
	} else {
		logger.Info(ctx, "AI vendors configured", "vendors", vendorNames(available))
	}
	return registry, nil
}

// ProvideTaskRouter 按配置覆盖内置偏好表
func ProvideTaskRouter(cfg *config.Config) *generation.Router {
	return generation.NewRouter(cfg.Routing.Preferences)
}

// ProvideFacade 提供容错生成门面
func ProvideFacade(registry *generation.Registry, router *generation.Router, cfg *config.Config) *generation.Facade {
	return generation.NewFacade(registry, router, cfg.Generation)
}

// ProvideEngine 提供工作流引擎
func ProvideEngine(facade *generation.Facade, cfg *config.Config) *agent.Engine {
	return agent.NewEngine(facade, cfg.Workflow)
}

// ProvideOutlineCache 提供大纲缓存，Redis 不可用时返回 nil
func ProvideOutlineCache(client *redis.Client) synthesis.OutlineCache {
	if client == nil {
		return nil
	}
	return redis.NewOutlineCache(redis.NewCache(client), 0)
}

// ProvideSynthesizer 提供素材合成器
func ProvideSynthesizer(facade *generation.Facade, cfg *config.Config, cache synthesis.OutlineCache) *synthesis.Synthesizer {
	return synthesis.NewSynthesizer(facade, cfg.Synthesis, cache)
}

// ProvideRunPublisher 提供运行事件发布器，未开启或 Redis 不可用时返回 nil
func ProvideRunPublisher(client *redis.Client, cfg *config.Config) handler.RunPublisher {
	if client == nil || !cfg.Workflow.PublishLogs {
		return nil
	}
	stream := cfg.Messaging.RedisStream
	producer := messaging.NewProducer(client.Redis(), stream.MaxLen, stream.TTL)
	return messaging.NewAgentLogPublisher(producer, stream.StreamPrefix)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(facade *generation.Facade, client *redis.Client, cfg *config.Config) *handler.HealthHandler {
	var checker handler.HealthChecker
	if client != nil {
		checker = client
	}
	return handler.NewHealthHandler(facade, checker, cfg.App.Version)
}

func vendorNames(vs []entity.VendorName) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, string(v))
	}
	return out
}
