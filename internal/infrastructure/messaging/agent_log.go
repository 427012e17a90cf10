package messaging

import (
	"context"
	"fmt"

	"z-book-agent/internal/domain/entity"
	apperrors "z-book-agent/pkg/errors"
	"z-book-agent/pkg/logger"
)

// StreamWriter 发布与回放接口，由 Producer 实现
type StreamWriter interface {
	Publish(ctx context.Context, stream Stream, msg *Message) (string, error)
	History(ctx context.Context, stream Stream) ([]*Message, error)
}

// AgentLogPublisher 将工作流事件与最终草稿写入每次运行独立的流
type AgentLogPublisher struct {
	writer StreamWriter
	prefix string
}

// NewAgentLogPublisher 创建发布器
func NewAgentLogPublisher(writer StreamWriter, prefix string) *AgentLogPublisher {
	return &AgentLogPublisher{writer: writer, prefix: prefix}
}

// Sink 返回可直接作为工作流日志回调的函数，发布失败只记录日志
func (p *AgentLogPublisher) Sink(ctx context.Context, runID string) func(entity.AgentLogEntry) {
	stream := RunStream(p.prefix, runID)
	return func(entry entity.AgentLogEntry) {
		msg, err := NewMessage(entry.ID, TypeAgentLog, runID, entry)
		if err != nil {
			logger.Error(ctx, "failed to encode agent log", err, "run_id", runID)
			return
		}
		msg.SetMetadata("status", string(entry.Status))
		if _, err := p.writer.Publish(ctx, stream, msg); err != nil {
			logger.Warn(ctx, "failed to publish agent log", "run_id", runID, "error", err.Error())
		}
	}
}

// PublishDrafts 发布运行结束时的草稿列表
func (p *AgentLogPublisher) PublishDrafts(ctx context.Context, runID string, drafts []entity.ContentBlockDraft) error {
	msg, err := NewMessage(runID, TypeDrafts, runID, drafts)
	if err != nil {
		return err
	}
	msg.SetMetadata("count", fmt.Sprintf("%d", len(drafts)))
	if _, err := p.writer.Publish(ctx, RunStream(p.prefix, runID), msg); err != nil {
		return apperrors.ErrStreamFailed.WithError(err)
	}
	return nil
}

// Replay 读取一次运行的全部事件与草稿
func (p *AgentLogPublisher) Replay(ctx context.Context, runID string) ([]entity.AgentLogEntry, []entity.ContentBlockDraft, error) {
	msgs, err := p.writer.History(ctx, RunStream(p.prefix, runID))
	if err != nil {
		return nil, nil, apperrors.ErrStreamFailed.WithError(err)
	}
	logs := make([]entity.AgentLogEntry, 0, len(msgs))
	var drafts []entity.ContentBlockDraft
	for _, m := range msgs {
		switch m.Type {
		case TypeAgentLog:
			var entry entity.AgentLogEntry
			if err := m.UnmarshalPayload(&entry); err == nil {
				logs = append(logs, entry)
			}
		case TypeDrafts:
			_ = m.UnmarshalPayload(&drafts)
		}
	}
	return logs, drafts, nil
}
