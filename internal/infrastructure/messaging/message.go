// Package messaging 通过 Redis Stream 转发工作流事件
package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message 流消息信封
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	RunID     string            `json:"run_id"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(id, msgType, runID string, payload any) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        id,
		Type:      msgType,
		RunID:     runID,
		Payload:   b,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// 消息类型
const (
	TypeAgentLog = "agent_log"
	TypeDrafts   = "drafts"
)

// Stream 流名称
type Stream string

// RunStream 单次工作流运行对应的流
func RunStream(prefix, runID string) Stream {
	if prefix == "" {
		prefix = "stream:agent_log"
	}
	return Stream(fmt.Sprintf("%s:%s", prefix, runID))
}
