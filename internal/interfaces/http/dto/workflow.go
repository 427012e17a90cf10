package dto

import (
	"strings"

	"z-book-agent/internal/application/agent"
	"z-book-agent/internal/domain/entity"
)

// WorkflowRequest 工作流运行请求
type WorkflowRequest struct {
	RunID     string                   `json:"run_id,omitempty"`
	Request   string                   `json:"request" binding:"required"`
	Project   entity.ProjectSnapshot   `json:"project"`
	Blueprint *entity.SynthesisOutline `json:"blueprint,omitempty"`
	Vendor    string                   `json:"vendor,omitempty"`
}

// ToRunInput 转换为工作流输入
func (r *WorkflowRequest) ToRunInput() (agent.RunInput, error) {
	vendor, err := ParseOptionalVendor(r.Vendor)
	if err != nil {
		return agent.RunInput{}, err
	}
	return agent.RunInput{
		RunID:           strings.TrimSpace(r.RunID),
		UserRequest:     r.Request,
		Project:         r.Project,
		Blueprint:       r.Blueprint,
		PreferredVendor: vendor,
	}, nil
}

// WorkflowResponse 非流式运行或回放的结果
type WorkflowResponse struct {
	RunID  string                     `json:"run_id"`
	Logs   []entity.AgentLogEntry     `json:"logs"`
	Drafts []entity.ContentBlockDraft `json:"drafts"`
	Error  string                     `json:"error,omitempty"`
}

// SynthesisRequest 素材合成请求
type SynthesisRequest struct {
	Items []entity.InputItem `json:"items"`
}
