package entity

import (
	"slices"
	"unicode"
)

// InputType 原始素材类型
type InputType string

const (
	InputDocument  InputType = "document"
	InputImage     InputType = "image"
	InputPDF       InputType = "pdf"
	InputURL       InputType = "url"
	InputNote      InputType = "note"
	InputGuideline InputType = "guideline"
	InputAudio     InputType = "audio"
	InputOther     InputType = "other"
)

// InputItem 用户提供的一份素材
type InputItem struct {
	ID       string    `json:"id,omitempty"`
	Type     InputType `json:"type"`
	Name     string    `json:"name"`
	Content  string    `json:"content,omitempty"`
	MimeType string    `json:"mime_type,omitempty"`
	Data     []byte    `json:"data,omitempty"`
}

// IsBinary 图片与 PDF 以内联二进制片段提交
func (i InputItem) IsBinary() bool {
	return (i.Type == InputImage || i.Type == InputPDF) && len(i.Data) > 0
}

// OutlineChapter 大纲中的一章
type OutlineChapter struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// RosterEntry 人物、地点或物品
type RosterEntry struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SynthesisOutline 从素材中提炼出的结构化大纲
type SynthesisOutline struct {
	Themes         []string         `json:"themes"`
	KeyIdeas       []string         `json:"key_ideas"`
	Chapters       []OutlineChapter `json:"chapters"`
	Characters     []RosterEntry    `json:"characters"`
	Locations      []RosterEntry    `json:"locations"`
	Items          []RosterEntry    `json:"items"`
	Guidelines     []string         `json:"guidelines"`
	UnifiedContext string           `json:"unified_context"`
	WordCount      int              `json:"word_count"`
	SourceCount    int              `json:"source_count"`

	// Fallback 为 true 表示模型调用或解析失败，大纲由启发式规则生成
	Fallback bool `json:"fallback,omitempty"`
}

// EmptyOutline 没有任何素材时的空大纲
func EmptyOutline() *SynthesisOutline {
	return &SynthesisOutline{
		Themes:     []string{},
		KeyIdeas:   []string{},
		Chapters:   []OutlineChapter{},
		Characters: []RosterEntry{},
		Locations:  []RosterEntry{},
		Items:      []RosterEntry{},
		Guidelines: []string{},
	}
}

// Normalize 将缺失的列表补为空列表，并按顺序重排缺失的章节号
func (o *SynthesisOutline) Normalize() {
	if o.Themes == nil {
		o.Themes = []string{}
	}
	if o.KeyIdeas == nil {
		o.KeyIdeas = []string{}
	}
	if o.Chapters == nil {
		o.Chapters = []OutlineChapter{}
	}
	if o.Characters == nil {
		o.Characters = []RosterEntry{}
	}
	if o.Locations == nil {
		o.Locations = []RosterEntry{}
	}
	if o.Items == nil {
		o.Items = []RosterEntry{}
	}
	if o.Guidelines == nil {
		o.Guidelines = []string{}
	}
	for i := range o.Chapters {
		if o.Chapters[i].Number <= 0 {
			o.Chapters[i].Number = i + 1
		}
	}
}

// CountWords 统计词数，CJK 字符逐字计数
func CountWords(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			n++
			inWord = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			inWord = false
		default:
			if !inWord {
				n++
				inWord = true
			}
		}
	}
	return n
}

// Clone 深拷贝大纲，调用方修改副本不影响共享结果
func (o *SynthesisOutline) Clone() *SynthesisOutline {
	cp := *o
	cp.Themes = slices.Clone(o.Themes)
	cp.KeyIdeas = slices.Clone(o.KeyIdeas)
	cp.Characters = slices.Clone(o.Characters)
	cp.Locations = slices.Clone(o.Locations)
	cp.Items = slices.Clone(o.Items)
	cp.Guidelines = slices.Clone(o.Guidelines)
	cp.Chapters = slices.Clone(o.Chapters)
	for i := range cp.Chapters {
		cp.Chapters[i].KeyPoints = slices.Clone(o.Chapters[i].KeyPoints)
	}
	return &cp
}
