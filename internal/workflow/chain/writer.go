package chain

import (
	"fmt"
	"strings"

	"z-book-agent/internal/domain/entity"
	wfmodel "z-book-agent/internal/workflow/model"
	wfnode "z-book-agent/internal/workflow/node"
	workflowport "z-book-agent/internal/workflow/port"
	workflowprompt "z-book-agent/internal/workflow/prompt"
)

// WriterChain 写作阶段，每个写作任务调用一次
type WriterChain = StageChain[*wfmodel.WriterInput, wfmodel.WriterOutput]

// NewWriterChain 创建写作阶段
func NewWriterChain(gen workflowport.Generator, prompts *workflowprompt.Registry) *WriterChain {
	return newStageChain(gen, prompts, stageSpec[*wfmodel.WriterInput, wfmodel.WriterOutput]{
		name:     "writer",
		prompt:   workflowprompt.PromptWriterV1,
		category: entity.TaskWriting,
		vars: func(in *wfmodel.WriterInput) map[string]any {
			outline := in.Outline
			if outline == nil {
				outline = in.Project.Outline
			}
			chapterHint := ""
			if in.ChapterNumber > 0 {
				chapterHint = fmt.Sprintf("This is chapter %d of the book.", in.ChapterNumber)
			}
			title := strings.TrimSpace(in.Task.Title)
			if title == "" {
				title = wfnode.Headline(in.Task.Description, 80)
			}
			return map[string]any{
				"language":         languageOf(in.StageOptions, in.Project.Settings),
				"persona_block":    wfnode.BuildPersonaBlock(in.Project.Settings),
				"project_title":    wfnode.OrNone(in.Project.Title),
				"style_guide":      wfnode.OrNone(in.StyleGuide),
				"roster_block":     wfnode.BuildRosterBlock(outline),
				"task_title":       title,
				"chapter_hint":     chapterHint,
				"task_description": strings.TrimSpace(in.Task.Description),
				"task_context":     wfnode.OrNone(in.Task.Context),
			}
		},
		options: func(in *wfmodel.WriterInput) (entity.GenerateOptions, entity.VendorName) {
			return stageOptions(in.StageOptions, entity.ResponseJSON)
		},
		parse: func(raw string, _ *wfmodel.WriterInput) wfmodel.WriterOutput {
			return ParseWriterOutput(raw)
		},
	})
}

// ParseWriterOutput 解析写作者输出，无法解析时整段文本作为正文
func ParseWriterOutput(raw string) wfmodel.WriterOutput {
	out := wfnode.ParseOrFallback(raw, wfmodel.WriterOutput{Content: wfnode.StripCodeFences(raw)})
	out.Content = strings.TrimSpace(out.Content)
	out.HelperScript = strings.TrimSpace(out.HelperScript)
	return out
}
