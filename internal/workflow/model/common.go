package model

import "z-book-agent/internal/domain/entity"

// StageOptions 各阶段共享的采样参数
type StageOptions struct {
	Language    string
	Temperature *float32
	MaxTokens   *int

	// PreferredVendor 非空时优先使用该供应商
	PreferredVendor entity.VendorName
}
