package entity

import (
	"fmt"
	"strings"
)

// TaskCategory 生成调用的抽象用途，用于选择供应商偏好顺序
type TaskCategory string

const (
	TaskPlanning        TaskCategory = "planning"
	TaskWriting         TaskCategory = "writing"
	TaskEditing         TaskCategory = "editing"
	TaskCritique        TaskCategory = "critique"
	TaskSynthesis       TaskCategory = "synthesis"
	TaskImageGeneration TaskCategory = "image_generation"
	TaskQuickResponse   TaskCategory = "quick_response"
)

// AllTaskCategories 返回全部任务类别
func AllTaskCategories() []TaskCategory {
	return []TaskCategory{
		TaskPlanning,
		TaskWriting,
		TaskEditing,
		TaskCritique,
		TaskSynthesis,
		TaskImageGeneration,
		TaskQuickResponse,
	}
}

// ParseTaskCategory 解析任务类别，空字符串视为 quick_response
func ParseTaskCategory(s string) (TaskCategory, error) {
	v := TaskCategory(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return TaskQuickResponse, nil
	}
	for _, c := range AllTaskCategories() {
		if c == v {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown task category %q", s)
}
