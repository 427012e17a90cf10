package model

import "z-book-agent/internal/domain/entity"

type PlanInput struct {
	UserRequest string
	Project     entity.ProjectSnapshot
	Outline     *entity.SynthesisOutline

	StageOptions
}

type StyleInput struct {
	UserRequest string
	Project     entity.ProjectSnapshot

	StageOptions
}
