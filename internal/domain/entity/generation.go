package entity

import "strings"

// PartKind 内容片段类型
type PartKind string

const (
	PartText   PartKind = "text"
	PartInline PartKind = "inline"
	PartFile   PartKind = "file"
)

// ContentPart 多段提示词中的一个片段
type ContentPart struct {
	Kind     PartKind `json:"kind"`
	Text     string   `json:"text,omitempty"`
	MimeType string   `json:"mime_type,omitempty"`
	Data     []byte   `json:"data,omitempty"`
	FileURI  string   `json:"file_uri,omitempty"`
	Name     string   `json:"name,omitempty"`
}

// TextPart 构造文本片段
func TextPart(text string) ContentPart {
	return ContentPart{Kind: PartText, Text: text}
}

// InlinePart 构造内联二进制片段
func InlinePart(mimeType string, data []byte, name string) ContentPart {
	return ContentPart{Kind: PartInline, MimeType: mimeType, Data: data, Name: name}
}

// FilePart 构造外部文件引用片段
func FilePart(mimeType, uri string) ContentPart {
	return ContentPart{Kind: PartFile, MimeType: mimeType, FileURI: uri}
}

// Prompt 纯文本或有序多段内容，二者互斥，Parts 非空时忽略 Text
type Prompt struct {
	Text  string        `json:"text,omitempty"`
	Parts []ContentPart `json:"parts,omitempty"`
}

// TextPrompt 构造纯文本提示词
func TextPrompt(text string) Prompt {
	return Prompt{Text: text}
}

// PartsPrompt 构造多段提示词
func PartsPrompt(parts ...ContentPart) Prompt {
	return Prompt{Parts: parts}
}

// IsMultipart 是否为多段提示词
func (p Prompt) IsMultipart() bool {
	return len(p.Parts) > 0
}

// HasBinary 是否包含非文本片段
func (p Prompt) HasBinary() bool {
	for _, part := range p.Parts {
		if part.Kind != PartText {
			return true
		}
	}
	return false
}

// TextOnly 按顺序拼接文本片段，丢弃二进制与文件引用片段
func (p Prompt) TextOnly() string {
	if !p.IsMultipart() {
		return p.Text
	}
	texts := make([]string, 0, len(p.Parts))
	for _, part := range p.Parts {
		if part.Kind == PartText && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ResponseFormat 期望的输出形态
type ResponseFormat string

const (
	ResponseText ResponseFormat = "text"
	ResponseJSON ResponseFormat = "json"
)

// GenerateOptions 生成选项
type GenerateOptions struct {
	SystemInstruction string         `json:"system_instruction,omitempty"`
	Temperature       *float32       `json:"temperature,omitempty"`
	MaxOutputTokens   *int           `json:"max_output_tokens,omitempty"`
	ResponseFormat    ResponseFormat `json:"response_format,omitempty"`
}

// WantsJSON 是否要求 JSON 输出
func (o GenerateOptions) WantsJSON() bool {
	return o.ResponseFormat == ResponseJSON
}

// GenerationResult 生成结果
type GenerationResult struct {
	Text   string     `json:"text"`
	Vendor VendorName `json:"vendor"`
	Model  string     `json:"model,omitempty"`

	// Attempts 本次请求在所有供应商上的尝试总次数
	Attempts int `json:"attempts"`
}
