//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"z-book-agent/internal/application/agent"
	"z-book-agent/internal/application/generation"
	"z-book-agent/internal/application/synthesis"
	"z-book-agent/internal/config"
	"z-book-agent/internal/interfaces/http/handler"
	"z-book-agent/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RedisSet,
		GenerationSet,
		WorkflowSet,
		RouterSet,
	)
	return nil, nil, nil
}

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideVendorLimiter,
	ProvideAPILimiter,
	ProvideOutlineCache,
	ProvideRunPublisher,
)

// GenerationSet 供应商、路由与门面
var GenerationSet = wire.NewSet(
	ProvideProviders,
	ProvideRegistry,
	ProvideTaskRouter,
	ProvideFacade,
)

// WorkflowSet 工作流与素材合成
var WorkflowSet = wire.NewSet(
	ProvideEngine,
	ProvideSynthesizer,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewGenerationHandler,
	handler.NewWorkflowHandler,
	handler.NewSynthesisHandler,
	wire.Bind(new(handler.GenerationService), new(*generation.Facade)),
	wire.Bind(new(handler.WorkflowRunner), new(*agent.Engine)),
	wire.Bind(new(handler.OutlineSynthesizer), new(*synthesis.Synthesizer)),
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
