package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/domain/service"
	"z-book-agent/pkg/metrics"
)

// OpenAIProvider 基于官方 openai-go SDK 的适配器
// 支持多模态输入、原生 JSON 模式，另外提供图片生成与向量生成
type OpenAIProvider struct {
	*vendorState

	imageModel string
	embedModel string
	opts       []option.RequestOption

	once   sync.Once
	client openai.Client
}

// NewOpenAIProvider 创建 OpenAI 适配器
func NewOpenAIProvider(cfg config.VendorConfig, extra ...option.RequestOption) *OpenAIProvider {
	// SDK 自带重试会与门面层的重试叠加，这里关闭
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(opts, extra...)

	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = string(openai.ImageModelGPTImage1)
	}
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = string(openai.EmbeddingModelTextEmbedding3Small)
	}

	return &OpenAIProvider{
		vendorState: newVendorState(entity.VendorOpenAI, cfg.APIKey, cfg.Model),
		imageModel:  imageModel,
		embedModel:  embedModel,
		opts:        opts,
	}
}

func (p *OpenAIProvider) sdk() *openai.Client {
	p.once.Do(func() {
		p.client = openai.NewClient(p.opts...)
	})
	return &p.client
}

func (p *OpenAIProvider) CheckAvailability(ctx context.Context) bool {
	return probe(ctx, p.vendorState, p.GenerateText)
}

func (p *OpenAIProvider) GenerateText(ctx context.Context, prompt entity.Prompt, opts entity.GenerateOptions) (string, error) {
	if !p.configured {
		return "", &VendorError{Vendor: p.name, Body: "api key not configured"}
	}
	ctx = service.WithVendor(ctx, string(p.name))

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if s := strings.TrimSpace(opts.SystemInstruction); s != "" {
		msgs = append(msgs, openai.SystemMessage(s))
	}
	if prompt.IsMultipart() {
		msgs = append(msgs, openai.UserMessage(contentParts(prompt.Parts)))
	} else {
		msgs = append(msgs, openai.UserMessage(prompt.Text))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: msgs,
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(float64(*opts.Temperature))
	}
	if opts.MaxOutputTokens != nil && *opts.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(*opts.MaxOutputTokens))
	}
	if opts.WantsJSON() {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.sdk().Chat.Completions.New(ctx, params)
	if err != nil {
		return "", p.wrapSDKError(err)
	}
	metrics.LLMCallTotal.WithLabelValues(string(p.name), p.model, "success").Inc()
	metrics.LLMTokensUsed.WithLabelValues(string(p.name), p.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(string(p.name), p.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return "", &VendorError{Vendor: p.name, Err: ErrEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}

// contentParts 将内部片段映射为 SDK 的多模态片段
// 图片以 data URI 内联，其它二进制作为文件片段，外部引用的图片走 URL
func contentParts(parts []entity.ContentPart) []openai.ChatCompletionContentPartUnionParam {
	out := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, part := range parts {
		switch part.Kind {
		case entity.PartText:
			if part.Text != "" {
				out = append(out, openai.TextContentPart(part.Text))
			}
		case entity.PartInline:
			if len(part.Data) == 0 {
				continue
			}
			encoded := base64.StdEncoding.EncodeToString(part.Data)
			dataURI := fmt.Sprintf("data:%s;base64,%s", part.MimeType, encoded)
			if strings.HasPrefix(part.MimeType, "image/") {
				out = append(out, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURI}))
				continue
			}
			name := part.Name
			if name == "" {
				name = "attachment"
			}
			out = append(out, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
				FileData: openai.String(dataURI),
				Filename: openai.String(name),
			}))
		case entity.PartFile:
			if strings.HasPrefix(part.MimeType, "image/") && part.FileURI != "" {
				out = append(out, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: part.FileURI}))
				continue
			}
			if part.FileURI != "" {
				out = append(out, openai.TextContentPart("Referenced file: "+part.FileURI))
			}
		}
	}
	return out
}

// GenerateImage 生成一张图片并返回 base64 编码
func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if !p.configured {
		return "", &VendorError{Vendor: p.name, Body: "api key not configured"}
	}
	params := openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(p.imageModel),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	}
	// gpt-image 系列固定返回 base64，不接受 response_format
	if strings.HasPrefix(p.imageModel, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	resp, err := p.sdk().Images.Generate(ctx, params)
	if err != nil {
		return "", p.wrapSDKError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", &VendorError{Vendor: p.name, Err: ErrEmptyResponse}
	}
	return resp.Data[0].B64JSON, nil
}

// Embed 批量生成文本向量，输出顺序与输入一致
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if !p.configured {
		return nil, &VendorError{Vendor: p.name, Body: "api key not configured"}
	}
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	resp, err := p.sdk().Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(p.embedModel),
	})
	if err != nil {
		return nil, p.wrapSDKError(err)
	}
	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && int(d.Index) < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}

func (p *OpenAIProvider) wrapSDKError(err error) error {
	metrics.LLMCallTotal.WithLabelValues(string(p.name), p.model, "error").Inc()
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if body == "" {
			body = apiErr.Message
		}
		return &VendorError{Vendor: p.name, StatusCode: apiErr.StatusCode, Body: body, Err: err}
	}
	return wrapError(p.name, err)
}
