// Package entity 定义领域实体
package entity

import (
	"fmt"
	"strings"
	"time"
)

// VendorName 供应商标识
type VendorName string

const (
	VendorGemini   VendorName = "gemini"
	VendorOpenAI   VendorName = "openai"
	VendorDeepSeek VendorName = "deepseek"
	VendorMistral  VendorName = "mistral"
	VendorDoubao   VendorName = "doubao"
)

// AllVendors 返回全部已知供应商，顺序即默认注册顺序
func AllVendors() []VendorName {
	return []VendorName{VendorGemini, VendorOpenAI, VendorDeepSeek, VendorMistral, VendorDoubao}
}

// ParseVendorName 解析供应商名，大小写不敏感
func ParseVendorName(s string) (VendorName, error) {
	name := VendorName(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range AllVendors() {
		if v == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vendor %q", s)
}

// Capability 供应商能力标签
type Capability string

const (
	CapabilityImages          Capability = "images"
	CapabilityLargeContext    Capability = "large_context"
	CapabilityJSONMode        Capability = "json_mode"
	CapabilityMultimodalInput Capability = "multimodal_input"
	CapabilityEmbeddings      Capability = "embeddings"
)

// Vendor 供应商身份与状态快照
type Vendor struct {
	Name         VendorName   `json:"name"`
	DisplayName  string       `json:"display_name"`
	Capabilities []Capability `json:"capabilities"`
	Configured   bool         `json:"configured"`

	// Healthy 为最近一次探活结果，未探活时为 nil
	Healthy     *bool      `json:"healthy,omitempty"`
	LastProbeAt *time.Time `json:"last_probe_at,omitempty"`
}

// Has 判断是否具备某项能力
func (v Vendor) Has(c Capability) bool {
	for _, x := range v.Capabilities {
		if x == c {
			return true
		}
	}
	return false
}

// ModelDescriptor 供应商提供的具体模型
type ModelDescriptor struct {
	Vendor      VendorName `json:"vendor"`
	ModelID     string     `json:"model_id"`
	DisplayName string     `json:"display_name"`
	Strengths   []string   `json:"strengths,omitempty"`
	Available   bool       `json:"available"`
}
