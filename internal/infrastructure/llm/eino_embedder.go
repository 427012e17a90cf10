package llm

import (
	"context"
	"fmt"
	"sync"

	einoembedding "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/domain/service"
)

// EmbedderBuilder 惰性构造 Eino Embedder
type EmbedderBuilder func(ctx context.Context) (embedding.Embedder, error)

// EinoEmbeddingProvider 为 OpenAI 兼容供应商补充向量能力
type EinoEmbeddingProvider struct {
	*EinoProvider

	build EmbedderBuilder

	embedMu  sync.Mutex
	embedder embedding.Embedder
}

// WithEinoEmbeddings 使用供应商的 embeddings 接口，embed_model 为空时原样返回
func WithEinoEmbeddings(p *EinoProvider, cfg config.VendorConfig) Provider {
	if cfg.EmbedModel == "" {
		return p
	}
	return NewEinoEmbeddingProvider(p, func(ctx context.Context) (embedding.Embedder, error) {
		return einoembedding.NewEmbedder(ctx, &einoembedding.EmbeddingConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.EmbedModel,
		})
	})
}

// NewEinoEmbeddingProvider 使用自定义构造函数，测试中可注入假 Embedder
func NewEinoEmbeddingProvider(p *EinoProvider, build EmbedderBuilder) *EinoEmbeddingProvider {
	return &EinoEmbeddingProvider{EinoProvider: p, build: build}
}

// Vendor 在目录能力之外标记向量能力
func (p *EinoEmbeddingProvider) Vendor() entity.Vendor {
	v := p.EinoProvider.Vendor()
	if !v.Has(entity.CapabilityEmbeddings) {
		v.Capabilities = append(v.Capabilities, entity.CapabilityEmbeddings)
	}
	return v
}

// Embed 批量生成文本向量
func (p *EinoEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if !p.configured {
		return nil, &VendorError{Vendor: p.name, Body: "api key not configured"}
	}
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	emb, err := p.embedderFor(ctx)
	if err != nil {
		return nil, wrapError(p.name, err)
	}
	vecs, err := emb.EmbedStrings(service.WithVendor(ctx, string(p.name)), texts)
	if err != nil {
		return nil, wrapError(p.name, err)
	}
	if len(vecs) != len(texts) {
		return nil, &VendorError{Vendor: p.name, Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs))}
	}
	return vecs, nil
}

func (p *EinoEmbeddingProvider) embedderFor(ctx context.Context) (embedding.Embedder, error) {
	p.embedMu.Lock()
	defer p.embedMu.Unlock()
	if p.embedder != nil {
		return p.embedder, nil
	}
	if p.build == nil {
		return nil, fmt.Errorf("%s: embedder builder not set", p.name)
	}
	e, err := p.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino embedder for %s: %w", p.name, err)
	}
	p.embedder = e
	return e, nil
}
