package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"z-book-agent/internal/application/agent"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/interfaces/http/dto"
	"z-book-agent/pkg/logger"
)

// WorkflowRunner 工作流引擎
type WorkflowRunner interface {
	Run(ctx context.Context, in agent.RunInput, onLog agent.LogFunc) ([]entity.ContentBlockDraft, error)
}

// RunPublisher 运行事件的持久化与回放，由 messaging.AgentLogPublisher 实现
type RunPublisher interface {
	Sink(ctx context.Context, runID string) func(entity.AgentLogEntry)
	PublishDrafts(ctx context.Context, runID string, drafts []entity.ContentBlockDraft) error
	Replay(ctx context.Context, runID string) ([]entity.AgentLogEntry, []entity.ContentBlockDraft, error)
}

// WorkflowHandler 工作流处理器
type WorkflowHandler struct {
	runner    WorkflowRunner
	publisher RunPublisher
}

// NewWorkflowHandler 创建工作流处理器，publisher 可为 nil
func NewWorkflowHandler(runner WorkflowRunner, publisher RunPublisher) *WorkflowHandler {
	return &WorkflowHandler{runner: runner, publisher: publisher}
}

type runResult struct {
	drafts []entity.ContentBlockDraft
	err    error
}

// Run 执行工作流
// 默认以 SSE 推送 log 事件，结束时推送 drafts 与 error；stream=false 时一次性返回 JSON
// @Summary 执行工作流
// @Tags Workflows
// @Accept json
// @Produce text/event-stream
// @Param body body dto.WorkflowRequest true "工作流请求"
// @Param stream query bool false "是否流式" default(true)
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/workflows [post]
func (h *WorkflowHandler) Run(c *gin.Context) {
	var req dto.WorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	in, err := req.ToRunInput()
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	if in.RunID == "" {
		in.RunID = uuid.NewString()
	}
	c.Header("X-Run-ID", in.RunID)

	if c.Query("stream") == "false" {
		h.runBlocking(c, in)
		return
	}
	h.runStreaming(c, in)
}

func (h *WorkflowHandler) runBlocking(c *gin.Context, in agent.RunInput) {
	ctx := c.Request.Context()

	logs := make([]entity.AgentLogEntry, 0, 16)
	collect := func(e entity.AgentLogEntry) { logs = append(logs, e) }

	drafts, err := h.runner.Run(ctx, in, agent.MultiLog(collect, h.sink(ctx, in.RunID)))
	h.publishDrafts(ctx, in.RunID, drafts)

	resp := dto.WorkflowResponse{RunID: in.RunID, Logs: logs, Drafts: nonNilDrafts(drafts)}
	if err != nil {
		if len(drafts) == 0 {
			respondError(c, err)
			return
		}
		resp.Error = err.Error()
	}
	dto.Success(c, resp)
}

func (h *WorkflowHandler) runStreaming(c *gin.Context, in agent.RunInput) {
	ctx := c.Request.Context()

	events := make(chan entity.AgentLogEntry, 64)
	done := make(chan runResult, 1)
	forward := func(e entity.AgentLogEntry) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}

	go func() {
		drafts, err := h.runner.Run(ctx, in, agent.MultiLog(forward, h.sink(ctx, in.RunID)))
		done <- runResult{drafts: drafts, err: err}
	}()

	setSSEHeaders(c)
	c.Status(http.StatusOK)

	for {
		select {
		case e := <-events:
			writeEvent(c, "log", e)

		case res := <-done:
			// 运行结束前发出的事件都已进入缓冲区
			for drained := false; !drained; {
				select {
				case e := <-events:
					writeEvent(c, "log", e)
				default:
					drained = true
				}
			}
			h.publishDrafts(ctx, in.RunID, res.drafts)
			if res.err == nil || len(res.drafts) > 0 {
				writeEvent(c, "drafts", nonNilDrafts(res.drafts))
			}
			if res.err != nil {
				writeEvent(c, "error", errorEvent(res.err))
			}
			return

		case <-ctx.Done():
			logger.Warn(ctx, "workflow client disconnected", "run_id", in.RunID)
			return
		}
	}
}

// Replay 回放一次运行的事件与草稿
// @Summary 回放工作流
// @Tags Workflows
// @Produce json
// @Param id path string true "运行 ID"
// @Success 200 {object} dto.Response[dto.WorkflowResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/workflows/{id}/replay [get]
func (h *WorkflowHandler) Replay(c *gin.Context) {
	if h.publisher == nil {
		dto.ServiceUnavailable(c, "workflow log streaming is disabled")
		return
	}
	runID := c.Param("id")
	ctx := c.Request.Context()

	logs, drafts, err := h.publisher.Replay(ctx, runID)
	if err != nil {
		logger.Error(ctx, "failed to replay workflow", err, "run_id", runID)
		dto.InternalError(c, "failed to replay workflow")
		return
	}
	if len(logs) == 0 && len(drafts) == 0 {
		dto.NotFound(c, "workflow run not found")
		return
	}
	dto.Success(c, dto.WorkflowResponse{RunID: runID, Logs: logs, Drafts: nonNilDrafts(drafts)})
}

// sink 发布事件到日志流，请求结束后仍继续写入
func (h *WorkflowHandler) sink(ctx context.Context, runID string) agent.LogFunc {
	if h.publisher == nil {
		return nil
	}
	return h.publisher.Sink(context.WithoutCancel(ctx), runID)
}

func (h *WorkflowHandler) publishDrafts(ctx context.Context, runID string, drafts []entity.ContentBlockDraft) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishDrafts(context.WithoutCancel(ctx), runID, nonNilDrafts(drafts)); err != nil {
		logger.Warn(ctx, "failed to publish drafts", "run_id", runID, "error", err.Error())
	}
}

func nonNilDrafts(d []entity.ContentBlockDraft) []entity.ContentBlockDraft {
	if d == nil {
		return []entity.ContentBlockDraft{}
	}
	return d
}
