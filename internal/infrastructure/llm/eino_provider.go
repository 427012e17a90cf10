package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/domain/service"
	"z-book-agent/pkg/logger"
)

// ChatModelBuilder 惰性构造 Eino ChatModel
type ChatModelBuilder func(ctx context.Context) (model.BaseChatModel, error)

// EinoProvider 基于 Eino ChatModel 的文本适配器
// 仅接受文本片段，二进制与文件引用片段会被丢弃
type EinoProvider struct {
	*vendorState

	build ChatModelBuilder
	// nativeJSON 为 true 时通过 response_format 请求 JSON 输出
	nativeJSON bool

	mu   sync.Mutex
	chat model.BaseChatModel
}

// NewOpenAICompatibleProvider 为 OpenAI 兼容接口的供应商创建适配器（deepseek、mistral、gemini）
func NewOpenAICompatibleProvider(name entity.VendorName, cfg config.VendorConfig) *EinoProvider {
	return &EinoProvider{
		vendorState: newVendorState(name, cfg.APIKey, cfg.Model),
		nativeJSON:  true,
		build: func(ctx context.Context) (model.BaseChatModel, error) {
			return openaiopts.NewChatModel(ctx, &openaiopts.ChatModelConfig{
				APIKey:  cfg.APIKey,
				BaseURL: cfg.BaseURL,
				Model:   cfg.Model,
				Timeout: cfg.Timeout,
			})
		},
	}
}

// NewEinoProvider 使用自定义构造函数创建适配器，测试中可注入假模型
func NewEinoProvider(name entity.VendorName, apiKey, modelID string, nativeJSON bool, build ChatModelBuilder) *EinoProvider {
	return &EinoProvider{
		vendorState: newVendorState(name, apiKey, modelID),
		nativeJSON:  nativeJSON,
		build:       build,
	}
}

func (p *EinoProvider) chatModel(ctx context.Context) (model.BaseChatModel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chat != nil {
		return p.chat, nil
	}
	if p.build == nil {
		return nil, fmt.Errorf("%s: chat model builder not set", p.name)
	}
	m, err := p.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for %s: %w", p.name, err)
	}
	p.chat = m
	return m, nil
}

func (p *EinoProvider) CheckAvailability(ctx context.Context) bool {
	return probe(ctx, p.vendorState, p.GenerateText)
}

func (p *EinoProvider) GenerateText(ctx context.Context, prompt entity.Prompt, opts entity.GenerateOptions) (string, error) {
	if !p.configured {
		return "", &VendorError{Vendor: p.name, Body: "api key not configured"}
	}
	chat, err := p.chatModel(ctx)
	if err != nil {
		return "", wrapError(p.name, err)
	}

	ctx = service.WithVendor(ctx, string(p.name))
	useNative := opts.WantsJSON() && p.nativeJSON

	out, err := chat.Generate(ctx, buildMessages(prompt, opts, opts.WantsJSON() && !useNative), p.modelOptions(opts, useNative)...)
	if err != nil && useNative && IsResponseFormatUnsupported(err) {
		logger.Warn(ctx, "response_format rejected, retrying with prompt constraint", "vendor", string(p.name))
		out, err = chat.Generate(ctx, buildMessages(prompt, opts, true), p.modelOptions(opts, false)...)
	}
	if err != nil {
		return "", wrapError(p.name, err)
	}
	if out == nil {
		return "", &VendorError{Vendor: p.name, Err: ErrEmptyResponse}
	}
	return out.Content, nil
}

func (p *EinoProvider) modelOptions(opts entity.GenerateOptions, nativeJSON bool) []model.Option {
	out := make([]model.Option, 0, 4)
	if opts.Temperature != nil {
		out = append(out, model.WithTemperature(*opts.Temperature))
	}
	if opts.MaxOutputTokens != nil && *opts.MaxOutputTokens > 0 {
		out = append(out, model.WithMaxTokens(*opts.MaxOutputTokens))
	}
	if p.model != "" {
		out = append(out, model.WithModel(p.model))
	}
	if nativeJSON {
		out = append(out, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{"type": "json_object"},
		}))
	}
	return out
}

// buildMessages 组装系统与用户消息，多段提示词按文本片段降级
func buildMessages(prompt entity.Prompt, opts entity.GenerateOptions, jsonInPrompt bool) []*schema.Message {
	system := strings.TrimSpace(opts.SystemInstruction)
	if jsonInPrompt {
		system = systemWithJSON(system)
	}
	msgs := make([]*schema.Message, 0, 2)
	if system != "" {
		msgs = append(msgs, schema.SystemMessage(system))
	}
	msgs = append(msgs, schema.UserMessage(prompt.TextOnly()))
	return msgs
}
