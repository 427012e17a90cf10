package entity

import (
	"time"

	"github.com/google/uuid"
)

// AgentRole 工作流中的智能体角色
type AgentRole string

const (
	AgentOrchestrator AgentRole = "orchestrator"
	AgentPlanner      AgentRole = "planner"
	AgentStylist      AgentRole = "stylist"
	AgentWriter       AgentRole = "writer"
	AgentCritic       AgentRole = "critic"
	AgentContinuity   AgentRole = "continuity"
	AgentSynthesizer  AgentRole = "synthesizer"
)

// LogStatus 日志事件状态
type LogStatus string

const (
	LogThinking LogStatus = "thinking"
	LogWorking  LogStatus = "working"
	LogSuccess  LogStatus = "success"
	LogFailed   LogStatus = "failed"
	LogWarning  LogStatus = "warning"
)

// AgentLogEntry 工作流对外发出的一条可观察事件
type AgentLogEntry struct {
	ID        string     `json:"id"`
	RunID     string     `json:"run_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Agent     AgentRole  `json:"agent"`
	Message   string     `json:"message"`
	Payload   any        `json:"payload,omitempty"`
	Status    LogStatus  `json:"status"`
	Vendor    VendorName `json:"vendor,omitempty"`
}

// NewAgentLogEntry 创建日志事件
func NewAgentLogEntry(runID string, agent AgentRole, status LogStatus, message string) AgentLogEntry {
	return AgentLogEntry{
		ID:        uuid.NewString(),
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Agent:     agent,
		Message:   message,
		Status:    status,
	}
}
