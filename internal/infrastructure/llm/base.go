package llm

import (
	"context"
	"strings"
	"sync"
	"time"

	"z-book-agent/internal/domain/entity"
	"z-book-agent/pkg/logger"
)

// vendorState 适配器共享的身份与探活状态
type vendorState struct {
	name       entity.VendorName
	model      string
	configured bool

	mu        sync.RWMutex
	healthy   *bool
	lastProbe time.Time
}

func newVendorState(name entity.VendorName, apiKey, model string) *vendorState {
	return &vendorState{
		name:       name,
		model:      strings.TrimSpace(model),
		configured: strings.TrimSpace(apiKey) != "",
	}
}

func (s *vendorState) Vendor() entity.Vendor {
	v := entity.Vendor{
		Name:         s.name,
		DisplayName:  displayName(s.name),
		Capabilities: append([]entity.Capability(nil), catalog[s.name].capabilities...),
		Configured:   s.configured,
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.healthy != nil {
		h := *s.healthy
		at := s.lastProbe
		v.Healthy = &h
		v.LastProbeAt = &at
	}
	return v
}

func (s *vendorState) Models() []entity.ModelDescriptor {
	return describeModels(s.name, s.model, s.configured)
}

func (s *vendorState) IsConfigured() bool {
	return s.configured
}

// ModelID 当前调用使用的模型
func (s *vendorState) ModelID() string {
	return s.model
}

func (s *vendorState) recordProbe(ctx context.Context, ok bool, err error) bool {
	s.mu.Lock()
	s.healthy = &ok
	s.lastProbe = time.Now()
	s.mu.Unlock()

	if err != nil {
		logger.Warn(ctx, "vendor probe failed", "vendor", string(s.name), "error", err.Error())
	}
	return ok
}

// probeTimeout 探活调用的超时上限
const probeTimeout = 15 * time.Second

const probePrompt = "Reply with the single word: ok"

// probe 通过一次极小的文本生成检查可用性，永不返回错误
func probe(ctx context.Context, s *vendorState, generate func(context.Context, entity.Prompt, entity.GenerateOptions) (string, error)) bool {
	if !s.configured {
		return s.recordProbe(ctx, false, nil)
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	maxTokens := 8
	out, err := generate(ctx, entity.TextPrompt(probePrompt), entity.GenerateOptions{MaxOutputTokens: &maxTokens})
	if err != nil {
		return s.recordProbe(ctx, false, err)
	}
	return s.recordProbe(ctx, strings.TrimSpace(out) != "", nil)
}

// jsonInstruction 不支持原生 JSON 模式时附加到系统提示词中的约束
const jsonInstruction = "Respond with a single valid JSON object only. Do not wrap it in markdown code fences and do not add any commentary."

func systemWithJSON(system string) string {
	if strings.TrimSpace(system) == "" {
		return jsonInstruction
	}
	return strings.TrimSpace(system) + "\n\n" + jsonInstruction
}
