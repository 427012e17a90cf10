package port

import (
	"context"

	"z-book-agent/internal/application/generation"
	"z-book-agent/internal/domain/entity"
)

// Generator 工作流层对容错生成门面的最小依赖（port）。
type Generator interface {
	Generate(ctx context.Context, req generation.GenerateRequest) (*entity.GenerationResult, error)
}
