package chain

import (
	"strings"

	"z-book-agent/internal/domain/entity"
	wfmodel "z-book-agent/internal/workflow/model"
	wfnode "z-book-agent/internal/workflow/node"
	workflowport "z-book-agent/internal/workflow/port"
	workflowprompt "z-book-agent/internal/workflow/prompt"
)

// StyleChain 文风指南阶段
type StyleChain = StageChain[*wfmodel.StyleInput, string]

// NewStyleChain 创建文风指南阶段
func NewStyleChain(gen workflowport.Generator, prompts *workflowprompt.Registry) *StyleChain {
	return newStageChain(gen, prompts, stageSpec[*wfmodel.StyleInput, string]{
		name:     "style",
		prompt:   workflowprompt.PromptStyleGuideV1,
		category: entity.TaskEditing,
		vars: func(in *wfmodel.StyleInput) map[string]any {
			return map[string]any{
				"language":        languageOf(in.StageOptions, in.Project.Settings),
				"project_title":   wfnode.OrNone(in.Project.Title),
				"genre":           wfnode.OrNone(in.Project.Settings.Genre),
				"audience":        wfnode.OrNone(in.Project.Settings.Audience),
				"tone":            wfnode.OrNone(in.Project.Settings.Tone),
				"persona_block":   wfnode.BuildPersonaBlock(in.Project.Settings),
				"existing_blocks": wfnode.BuildExistingBlocks(in.Project.Blocks, 10),
				"user_request":    strings.TrimSpace(in.UserRequest),
			}
		},
		options: func(in *wfmodel.StyleInput) (entity.GenerateOptions, entity.VendorName) {
			return stageOptions(in.StageOptions, entity.ResponseText)
		},
		parse: func(raw string, _ *wfmodel.StyleInput) string {
			return wfnode.StripCodeFences(raw)
		},
	})
}
