package entity

import "strings"

// PlanTask 计划中的单个任务
type PlanTask struct {
	Agent       AgentRole `json:"agent"`
	Description string    `json:"description"`
	Context     string    `json:"context,omitempty"`
	Title       string    `json:"title,omitempty"`
}

// IsWriter 角色是否为写作者，大小写不敏感
func (t PlanTask) IsWriter() bool {
	return strings.EqualFold(strings.TrimSpace(string(t.Agent)), string(AgentWriter))
}

// IsChapter 描述或标题中包含 chapter 即视为章节任务
func (t PlanTask) IsChapter() bool {
	return strings.Contains(strings.ToLower(t.Description), "chapter") ||
		strings.Contains(strings.ToLower(t.Title), "chapter")
}

// WorkflowPlan 一次运行的任务计划，成功时 Tasks 非空
type WorkflowPlan struct {
	Tasks []PlanTask `json:"tasks"`
}

// BlockKind 草稿类型
type BlockKind string

const (
	BlockChapter BlockKind = "chapter"
	BlockSection BlockKind = "section"
)

// ContentBlockDraft 工作流产出的内容草稿，Content 永不为空
type ContentBlockDraft struct {
	Content         string     `json:"content"`
	AgentSignature  string     `json:"agent_signature"`
	Vendor          VendorName `json:"vendor"`
	TaskDescription string     `json:"task_description"`
	Title           string     `json:"title,omitempty"`
	Kind            BlockKind  `json:"kind"`

	// ChapterNumber 为 0 表示非章节
	ChapterNumber int    `json:"chapter_number,omitempty"`
	HelperScript  string `json:"helper_script,omitempty"`
}

// BlockSummary 项目中已有内容块的只读摘要
type BlockSummary struct {
	ID            string    `json:"id,omitempty"`
	Kind          BlockKind `json:"kind"`
	Title         string    `json:"title,omitempty"`
	ChapterNumber int       `json:"chapter_number,omitempty"`
	Summary       string    `json:"summary,omitempty"`
}

// ProjectSettings 影响提示词的项目设置
type ProjectSettings struct {
	Persona  string `json:"persona,omitempty"`
	Language string `json:"language,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Audience string `json:"audience,omitempty"`
	Tone     string `json:"tone,omitempty"`
}

// ProjectSnapshot 工作流读取的项目只读快照
type ProjectSnapshot struct {
	ID       string            `json:"id,omitempty"`
	Title    string            `json:"title,omitempty"`
	Blocks   []BlockSummary    `json:"blocks,omitempty"`
	Settings ProjectSettings   `json:"settings"`
	Outline  *SynthesisOutline `json:"outline,omitempty"`
}

// ChapterCount 已有章节块数量，作为本次运行章节编号的起点
func (p ProjectSnapshot) ChapterCount() int {
	n := 0
	for _, b := range p.Blocks {
		if b.Kind == BlockChapter {
			n++
		}
	}
	return n
}
