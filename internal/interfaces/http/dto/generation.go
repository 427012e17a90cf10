package dto

import (
	"fmt"
	"strings"

	"z-book-agent/internal/application/generation"
	"z-book-agent/internal/domain/entity"
)

// GenerateRequest 单次生成请求，prompt 与 parts 二选一
type GenerateRequest struct {
	Prompt  string                 `json:"prompt,omitempty"`
	Parts   []entity.ContentPart   `json:"parts,omitempty"`
	Task    string                 `json:"task,omitempty"`
	Vendor  string                 `json:"vendor,omitempty"`
	Options entity.GenerateOptions `json:"options"`
}

// ToGenerateRequest 校验并转换为门面请求
func (r *GenerateRequest) ToGenerateRequest() (generation.GenerateRequest, error) {
	var out generation.GenerateRequest

	switch {
	case len(r.Parts) > 0:
		out.Prompt = entity.PartsPrompt(r.Parts...)
	case strings.TrimSpace(r.Prompt) != "":
		out.Prompt = entity.TextPrompt(r.Prompt)
	default:
		return out, fmt.Errorf("prompt or parts is required")
	}

	category, err := entity.ParseTaskCategory(r.Task)
	if err != nil {
		return out, err
	}
	out.Category = category

	vendor, err := ParseOptionalVendor(r.Vendor)
	if err != nil {
		return out, err
	}
	out.PreferredVendor = vendor
	out.Options = r.Options
	return out, nil
}

// ImageRequest 图片生成请求
type ImageRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Vendor string `json:"vendor,omitempty"`
}

// ImageResponse 图片生成响应
type ImageResponse struct {
	// Image base64 编码的图片
	Image    string            `json:"image"`
	Vendor   entity.VendorName `json:"vendor"`
	Model    string            `json:"model,omitempty"`
	Attempts int               `json:"attempts"`
}

// ToImageResponse 转换门面结果
func ToImageResponse(r *entity.GenerationResult) *ImageResponse {
	return &ImageResponse{
		Image:    r.Text,
		Vendor:   r.Vendor,
		Model:    r.Model,
		Attempts: r.Attempts,
	}
}

// EmbedRequest 向量生成请求
type EmbedRequest struct {
	Texts []string `json:"texts" binding:"required,min=1"`
}

// EmbedResponse 向量生成响应
type EmbedResponse struct {
	Vendor     entity.VendorName `json:"vendor"`
	Embeddings [][]float64       `json:"embeddings"`
}

// VendorListResponse 供应商列表
type VendorListResponse struct {
	Vendors   []entity.Vendor     `json:"vendors"`
	Available []entity.VendorName `json:"available"`
}

// ParseOptionalVendor 解析可选的供应商名，空字符串表示不指定
func ParseOptionalVendor(s string) (entity.VendorName, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return entity.ParseVendorName(s)
}
