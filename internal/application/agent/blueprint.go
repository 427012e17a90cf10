package agent

import (
	"fmt"
	"strings"

	"z-book-agent/internal/domain/entity"
)

// PlanFromBlueprint 由已确认的大纲直接生成计划，每章一个写作任务，顺序不变
func PlanFromBlueprint(outline *entity.SynthesisOutline) entity.WorkflowPlan {
	if outline == nil {
		return entity.WorkflowPlan{}
	}
	tasks := make([]entity.PlanTask, 0, len(outline.Chapters))
	for i, ch := range outline.Chapters {
		number := ch.Number
		if number <= 0 {
			number = i + 1
		}
		title := strings.TrimSpace(ch.Title)
		if !strings.HasPrefix(strings.ToLower(title), "chapter") {
			if title == "" {
				title = fmt.Sprintf("Chapter %d", number)
			} else {
				title = fmt.Sprintf("Chapter %d: %s", number, title)
			}
		}

		description := strings.TrimSpace(ch.Summary)
		if description == "" {
			description = "Write " + title
		}
		var context string
		if len(ch.KeyPoints) > 0 {
			context = "Key points:\n- " + strings.Join(ch.KeyPoints, "\n- ")
		}
		tasks = append(tasks, entity.PlanTask{
			Agent:       entity.AgentWriter,
			Title:       title,
			Description: description,
			Context:     context,
		})
	}
	return entity.WorkflowPlan{Tasks: tasks}
}

// blueprintStyle 大纲中的写作准则与统一背景作为风格上下文
func blueprintStyle(outline *entity.SynthesisOutline) string {
	if outline == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if len(outline.Guidelines) > 0 {
		parts = append(parts, "Guidelines:\n- "+strings.Join(outline.Guidelines, "\n- "))
	}
	if c := strings.TrimSpace(outline.UnifiedContext); c != "" {
		parts = append(parts, "Background:\n"+c)
	}
	return strings.Join(parts, "\n\n")
}
