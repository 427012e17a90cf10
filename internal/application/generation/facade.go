package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/domain/service"
	"z-book-agent/internal/infrastructure/llm"
	apperrors "z-book-agent/pkg/errors"
	"z-book-agent/pkg/logger"
	"z-book-agent/pkg/metrics"
	"z-book-agent/pkg/tracer"
)

const (
	defaultMaxAttempts = 2
	defaultBackoff     = time.Second
)

// GenerateRequest 一次文本生成请求
type GenerateRequest struct {
	Prompt          entity.Prompt
	Category        entity.TaskCategory
	Options         entity.GenerateOptions
	PreferredVendor entity.VendorName
}

// Facade 容错生成门面
// 按尝试顺序逐个供应商调用，每个供应商最多重试 maxAttempts 次，首个非空结果即返回
type Facade struct {
	registry    *Registry
	router      *Router
	maxAttempts int
	backoff     time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewFacade 创建生成门面
func NewFacade(registry *Registry, router *Router, cfg config.GenerationConfig) *Facade {
	maxAttempts := cfg.MaxAttemptsPerVendor
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoff := cfg.RateLimitBackoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &Facade{
		registry:    registry,
		router:      router,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		sleep:       sleepContext,
	}
}

// Registry 返回门面使用的注册表
func (f *Facade) Registry() *Registry {
	return f.registry
}

// Vendors 全部供应商的状态快照
func (f *Facade) Vendors() []entity.Vendor {
	return f.registry.Vendors()
}

// AvailableVendors 已配置的供应商
func (f *Facade) AvailableVendors() []entity.VendorName {
	return f.registry.AvailableVendors()
}

// Generate 执行文本生成
func (f *Facade) Generate(ctx context.Context, req GenerateRequest) (*entity.GenerationResult, error) {
	available := f.registry.Available()
	if len(available) == 0 {
		return nil, apperrors.ErrNoVendorConfigured
	}
	category := req.Category
	if category == "" {
		category = entity.TaskQuickResponse
	}
	if service.StageFromContext(ctx) == "unknown" {
		ctx = service.WithStage(ctx, string(category))
	}

	order := f.router.TryOrder(category, available, req.PreferredVendor)
	text, vendor, attempts, err := f.run(ctx, category, order, func(ctx context.Context, p llm.Provider) (string, error) {
		return p.GenerateText(ctx, req.Prompt, req.Options)
	})
	if err != nil {
		return nil, err
	}
	return &entity.GenerationResult{
		Text:     text,
		Vendor:   vendor.Vendor().Name,
		Model:    modelID(vendor),
		Attempts: attempts,
	}, nil
}

// GenerateImage 在支持图片生成的供应商上按 image_generation 偏好顺序生成图片，返回 base64 编码
func (f *Facade) GenerateImage(ctx context.Context, prompt string, preferred entity.VendorName) (*entity.GenerationResult, error) {
	available := f.registry.Available()
	if len(available) == 0 {
		return nil, apperrors.ErrNoVendorConfigured
	}
	capable := make([]llm.Provider, 0, len(available))
	for _, p := range available {
		if _, ok := llm.Capability[llm.ImageGenerator](p); ok {
			capable = append(capable, p)
		}
	}
	if len(capable) == 0 {
		return nil, apperrors.ErrUnsupported.WithDetail("image generation")
	}

	ctx = service.WithStage(ctx, string(entity.TaskImageGeneration))
	order := f.router.TryOrder(entity.TaskImageGeneration, capable, preferred)
	image, vendor, attempts, err := f.run(ctx, entity.TaskImageGeneration, order, func(ctx context.Context, p llm.Provider) (string, error) {
		gen, _ := llm.Capability[llm.ImageGenerator](p)
		return gen.GenerateImage(ctx, prompt)
	})
	if errors.Is(err, apperrors.ErrVendorsExhausted) {
		return nil, apperrors.ErrImageFailed.WithError(err)
	}
	if err != nil {
		return nil, err
	}
	return &entity.GenerationResult{
		Text:     image,
		Vendor:   vendor.Vendor().Name,
		Model:    modelID(vendor),
		Attempts: attempts,
	}, nil
}

// Embed 使用第一个支持向量生成的已配置供应商
func (f *Facade) Embed(ctx context.Context, texts []string) ([][]float64, entity.VendorName, error) {
	for _, p := range f.registry.Available() {
		emb, ok := llm.Capability[llm.Embedder](p)
		if !ok {
			continue
		}
		name := p.Vendor().Name
		vecs, err := emb.Embed(service.WithStage(ctx, "embedding"), texts)
		if err != nil {
			return nil, name, apperrors.Wrap(err, apperrors.CodeEmbeddingFailed, "embedding failed")
		}
		return vecs, name, nil
	}
	return nil, "", apperrors.ErrUnsupported.WithDetail("embeddings")
}

// Probe 依次探测全部供应商并返回最新状态
func (f *Facade) Probe(ctx context.Context) []entity.Vendor {
	providers := f.registry.Providers()
	out := make([]entity.Vendor, 0, len(providers))
	for _, p := range providers {
		p.CheckAvailability(ctx)
		out = append(out, p.Vendor())
	}
	return out
}

func (f *Facade) run(
	ctx context.Context,
	category entity.TaskCategory,
	order []llm.Provider,
	call func(ctx context.Context, p llm.Provider) (string, error),
) (string, llm.Provider, int, error) {
	failures := make([]VendorFailure, 0, len(order))
	attempts := 0

	for i, p := range order {
		name := p.Vendor().Name
		if i > 0 {
			metrics.GenerationFallbacks.WithLabelValues(string(order[i-1].Vendor().Name), string(category)).Inc()
			logger.Warn(ctx, "falling back to next vendor",
				"from", string(order[i-1].Vendor().Name),
				"to", string(name),
				"category", string(category),
			)
		}

		var lastErr error
		for attempt := 1; attempt <= f.maxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return "", nil, attempts, apperrors.ErrCanceled.WithError(err)
			}
			attempts++
			text, err := f.attempt(ctx, category, p, attempt, call)
			if err == nil {
				return text, p, attempts, nil
			}
			lastErr = err
			if ctx.Err() != nil {
				return "", nil, attempts, apperrors.ErrCanceled.WithError(ctx.Err())
			}
			if attempt < f.maxAttempts && llm.IsRateLimited(err) {
				if err := f.sleep(ctx, f.backoff); err != nil {
					return "", nil, attempts, apperrors.ErrCanceled.WithError(err)
				}
			}
		}
		failures = append(failures, VendorFailure{Vendor: name, Reason: lastErr.Error()})
	}

	metrics.GenerationExhausted.WithLabelValues(string(category)).Inc()
	exhausted := &ExhaustedError{Category: category, Failures: failures}
	logger.Error(ctx, "all vendors exhausted", exhausted, "category", string(category), "attempts", attempts)
	return "", nil, attempts, exhausted
}

func (f *Facade) attempt(
	ctx context.Context,
	category entity.TaskCategory,
	p llm.Provider,
	n int,
	call func(ctx context.Context, p llm.Provider) (string, error),
) (string, error) {
	name := string(p.Vendor().Name)
	ctx, span := tracer.Start(ctx, "generation.attempt", trace.WithAttributes(
		attribute.String("vendor", name),
		attribute.String("category", string(category)),
		attribute.Int("attempt", n),
	))
	defer span.End()

	start := time.Now()
	text, err := call(ctx, p)
	if err == nil && strings.TrimSpace(text) == "" {
		err = &llm.VendorError{Vendor: p.Vendor().Name, Err: llm.ErrEmptyResponse}
	}
	if err != nil {
		tracer.RecordError(span, err)
		metrics.GenerationAttempts.WithLabelValues(name, string(category), "failure").Inc()
		logger.Warn(ctx, "generation attempt failed",
			"vendor", name,
			"category", string(category),
			"attempt", n,
			"rate_limited", llm.IsRateLimited(err),
			"error", err.Error(),
		)
		return "", err
	}
	metrics.GenerationAttempts.WithLabelValues(name, string(category), "success").Inc()
	logger.Debug(ctx, "generation attempt succeeded",
		"vendor", name,
		"category", string(category),
		"attempt", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func modelID(p llm.Provider) string {
	if m, ok := llm.Capability[interface{ ModelID() string }](p); ok {
		return m.ModelID()
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsExhausted 判断错误是否为全部供应商失败
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}
