package model

import "z-book-agent/internal/domain/entity"

type ReviewInput struct {
	Task    entity.PlanTask
	Draft   string
	Outline *entity.SynthesisOutline

	StageOptions
}

// CritiqueResult 质量评审结论，仅供参考
type CritiqueResult struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback"`
}

// ConsistencyResult 一致性检查结论，仅供参考
type ConsistencyResult struct {
	Consistent bool     `json:"consistent"`
	Issues     []string `json:"issues"`
}
