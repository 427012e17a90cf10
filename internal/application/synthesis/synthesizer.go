// Package synthesis 将用户提供的各类素材提炼为结构化大纲
package synthesis

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"z-book-agent/internal/application/generation"
	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	llmctx "z-book-agent/internal/domain/service"
	wfnode "z-book-agent/internal/workflow/node"
	workflowport "z-book-agent/internal/workflow/port"
	workflowprompt "z-book-agent/internal/workflow/prompt"
	"z-book-agent/pkg/logger"
	"z-book-agent/pkg/metrics"
	"z-book-agent/pkg/tracer"
)

// OutlineCache 按素材摘要缓存大纲，由 Redis 实现
type OutlineCache interface {
	Key(digest []byte) string
	Load(ctx context.Context, key string) (*entity.SynthesisOutline, bool)
	Store(ctx context.Context, key string, outline *entity.SynthesisOutline)
}

// Synthesizer 素材合成器
type Synthesizer struct {
	gen     workflowport.Generator
	prompts *workflowprompt.Registry
	cfg     config.SynthesisConfig
	cache   OutlineCache
	group   singleflight.Group
}

// NewSynthesizer 创建合成器，cache 可为 nil
func NewSynthesizer(gen workflowport.Generator, cfg config.SynthesisConfig, cache OutlineCache) *Synthesizer {
	return &Synthesizer{
		gen:     gen,
		prompts: workflowprompt.NewRegistry(),
		cfg:     cfg,
		cache:   cache,
	}
}

// Synthesize 生成大纲，从不返回错误；模型或解析失败时返回启发式大纲
func (s *Synthesizer) Synthesize(ctx context.Context, items []entity.InputItem) *entity.SynthesisOutline {
	if len(items) == 0 {
		metrics.SynthesisTotal.WithLabelValues("empty").Inc()
		return entity.EmptyOutline()
	}

	ctx, span := tracer.Start(ctx, "synthesis.synthesize")
	defer span.End()

	// 合并的调用共享同一次生成，不随首个调用方取消
	digest := Digest(items)
	shared := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do(string(digest), func() (any, error) {
		return s.synthesize(shared, items, digest), nil
	})
	return v.(*entity.SynthesisOutline).Clone()
}

func (s *Synthesizer) synthesize(ctx context.Context, items []entity.InputItem, digest []byte) *entity.SynthesisOutline {
	var key string
	if s.cache != nil {
		key = s.cache.Key(digest)
		if cached, ok := s.cache.Load(ctx, key); ok {
			metrics.SynthesisTotal.WithLabelValues("cached").Inc()
			return cached
		}
	}

	out := s.generate(ctx, items)
	out.WordCount = wordCount(items)
	out.SourceCount = len(items)

	if out.Fallback {
		metrics.SynthesisTotal.WithLabelValues("fallback").Inc()
		return out
	}
	metrics.SynthesisTotal.WithLabelValues("success").Inc()
	if s.cache != nil {
		s.cache.Store(ctx, key, out)
	}
	return out
}

func (s *Synthesizer) generate(ctx context.Context, items []entity.InputItem) *entity.SynthesisOutline {
	if s.gen == nil {
		return fallbackOutline(items)
	}
	prompt, system, err := buildPrompt(ctx, s.prompts, s.cfg, items)
	if err != nil {
		logger.Error(ctx, "failed to build synthesis prompt", err)
		return fallbackOutline(items)
	}

	res, err := s.gen.Generate(llmctx.WithStage(ctx, "synthesis"), generation.GenerateRequest{
		Prompt:   prompt,
		Category: entity.TaskSynthesis,
		Options: entity.GenerateOptions{
			SystemInstruction: system,
			ResponseFormat:    entity.ResponseJSON,
		},
	})
	if err != nil {
		logger.Warn(ctx, "synthesis generation failed, using heuristic outline", "error", err.Error())
		return fallbackOutline(items)
	}

	out, ok := wfnode.TryParseJSON[entity.SynthesisOutline](res.Text)
	if !ok {
		logger.Warn(ctx, "synthesis output is not valid JSON, using heuristic outline", "vendor", string(res.Vendor))
		return fallbackOutline(items)
	}
	out.Normalize()
	out.Fallback = false
	return &out
}

// wordCount 只统计文本素材
func wordCount(items []entity.InputItem) int {
	n := 0
	for _, item := range items {
		if item.IsBinary() {
			continue
		}
		n += entity.CountWords(strings.TrimSpace(item.Content))
	}
	return n
}
