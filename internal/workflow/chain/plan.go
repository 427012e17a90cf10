package chain

import (
	"strings"

	"z-book-agent/internal/domain/entity"
	wfmodel "z-book-agent/internal/workflow/model"
	wfnode "z-book-agent/internal/workflow/node"
	workflowport "z-book-agent/internal/workflow/port"
	workflowprompt "z-book-agent/internal/workflow/prompt"
)

// 规划提示词中列出的已有内容块上限
const planExistingBlocks = 30

// PlanChain 规划阶段，输出任务列表
type PlanChain = StageChain[*wfmodel.PlanInput, entity.WorkflowPlan]

// NewPlanChain 创建规划阶段
func NewPlanChain(gen workflowport.Generator, prompts *workflowprompt.Registry) *PlanChain {
	return newStageChain(gen, prompts, stageSpec[*wfmodel.PlanInput, entity.WorkflowPlan]{
		name:     "plan",
		prompt:   workflowprompt.PromptPlannerV1,
		category: entity.TaskPlanning,
		vars: func(in *wfmodel.PlanInput) map[string]any {
			outline := in.Outline
			if outline == nil {
				outline = in.Project.Outline
			}
			return map[string]any{
				"language":        languageOf(in.StageOptions, in.Project.Settings),
				"project_title":   wfnode.OrNone(in.Project.Title),
				"genre":           wfnode.OrNone(in.Project.Settings.Genre),
				"audience":        wfnode.OrNone(in.Project.Settings.Audience),
				"existing_blocks": wfnode.BuildExistingBlocks(in.Project.Blocks, planExistingBlocks),
				"outline_block":   wfnode.BuildOutlineBlock(outline),
				"user_request":    strings.TrimSpace(in.UserRequest),
			}
		},
		options: func(in *wfmodel.PlanInput) (entity.GenerateOptions, entity.VendorName) {
			return stageOptions(in.StageOptions, entity.ResponseJSON)
		},
		parse: func(raw string, _ *wfmodel.PlanInput) entity.WorkflowPlan {
			return ParsePlan(raw)
		},
	})
}

// ParsePlan 容错解析任务计划，也接受直接返回任务数组的输出；没有有效任务时 Tasks 为空
func ParsePlan(raw string) entity.WorkflowPlan {
	plan := wfnode.ParseOrFallback(raw, entity.WorkflowPlan{})
	if len(plan.Tasks) == 0 {
		plan.Tasks = wfnode.ParseOrFallback(raw, []entity.PlanTask(nil))
	}
	tasks := make([]entity.PlanTask, 0, len(plan.Tasks))
	for _, t := range plan.Tasks {
		t.Agent = entity.AgentRole(strings.ToLower(strings.TrimSpace(string(t.Agent))))
		t.Description = strings.TrimSpace(t.Description)
		t.Title = strings.TrimSpace(t.Title)
		if t.Description == "" && t.Title == "" {
			continue
		}
		if t.Agent == "" {
			t.Agent = entity.AgentWriter
		}
		tasks = append(tasks, t)
	}
	return entity.WorkflowPlan{Tasks: tasks}
}
