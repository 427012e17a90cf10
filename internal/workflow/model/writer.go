package model

import "z-book-agent/internal/domain/entity"

type WriterInput struct {
	Task       entity.PlanTask
	StyleGuide string
	Project    entity.ProjectSnapshot
	Outline    *entity.SynthesisOutline

	// ChapterNumber 为 0 表示非章节任务
	ChapterNumber int

	StageOptions
}

// WriterOutput 写作者返回的 JSON 结构
type WriterOutput struct {
	Content      string `json:"content"`
	HelperScript string `json:"helper_script"`
}
