// Package llm 将各供应商的对话接口统一为 Provider 契约
package llm

import (
	"context"

	"z-book-agent/internal/domain/entity"
)

// Provider 单个供应商适配器的统一契约
type Provider interface {
	// Vendor 返回供应商身份与最近一次探活状态
	Vendor() entity.Vendor
	// Models 返回该供应商的模型表，可用性与配置状态一致
	Models() []entity.ModelDescriptor
	// IsConfigured 仅检查凭证是否存在，不发起网络请求
	IsConfigured() bool
	// CheckAvailability 发起一次最小探测调用，任何错误都返回 false
	CheckAvailability(ctx context.Context) bool
	// GenerateText 执行真实调用，非成功响应返回 *VendorError
	GenerateText(ctx context.Context, prompt entity.Prompt, opts entity.GenerateOptions) (string, error)
}

// ImageGenerator 可选能力：根据提示词生成图片，返回 base64 编码
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Embedder 可选能力：批量生成文本向量
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
