// Package agent 多智能体写作工作流：规划、逐任务写作、校验与汇总
package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/workflow/chain"
	wfmodel "z-book-agent/internal/workflow/model"
	wfnode "z-book-agent/internal/workflow/node"
	"z-book-agent/internal/workflow/pipeline"
	workflowport "z-book-agent/internal/workflow/port"
	workflowprompt "z-book-agent/internal/workflow/prompt"
	apperrors "z-book-agent/pkg/errors"
	"z-book-agent/pkg/logger"
	"z-book-agent/pkg/metrics"
	"z-book-agent/pkg/tracer"
)

const (
	modeBlueprint = "blueprint"
	modePlanned   = "planned"
)

// RunInput 一次工作流运行的输入
type RunInput struct {
	RunID       string
	UserRequest string
	Project     entity.ProjectSnapshot

	// Blueprint 已确认的大纲，章节非空时跳过规划调用
	Blueprint *entity.SynthesisOutline

	PreferredVendor entity.VendorName
}

// Engine 工作流引擎，无状态，可被多个运行并发使用
type Engine struct {
	plan   *chain.PlanChain
	style  *chain.StyleChain
	writer *chain.WriterChain
	review *pipeline.ReviewPipeline
	cfg    config.WorkflowConfig
}

// NewEngine 创建工作流引擎
func NewEngine(gen workflowport.Generator, cfg config.WorkflowConfig) *Engine {
	prompts := workflowprompt.NewRegistry()
	return &Engine{
		plan:   chain.NewPlanChain(gen, prompts),
		style:  chain.NewStyleChain(gen, prompts),
		writer: chain.NewWriterChain(gen, prompts),
		review: pipeline.NewReviewPipeline(gen, prompts),
		cfg:    cfg,
	}
}

// runState 单次运行的局部状态，章节计数与草稿列表不跨运行共享
type runState struct {
	id      string
	in      RunInput
	outline *entity.SynthesisOutline
	chapter int
	drafts  []entity.ContentBlockDraft

	mu    sync.Mutex
	onLog LogFunc
}

func (r *runState) log(ctx context.Context, agent entity.AgentRole, status entity.LogStatus, vendor entity.VendorName, payload any, msg string) {
	entry := entity.NewAgentLogEntry(r.id, agent, status, msg)
	entry.Vendor = vendor
	entry.Payload = payload

	logger.Debug(ctx, "agent event",
		"agent", string(agent),
		"status", string(status),
		"vendor", string(vendor),
		"message", msg,
	)
	if r.onLog == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLog(entry)
}

// Run 执行一次完整的工作流
// 规划失败时不返回任何草稿；执行阶段中止时返回已完成的草稿以及包装 ErrWorkflowAborted 的错误
func (e *Engine) Run(ctx context.Context, in RunInput, onLog LogFunc) ([]entity.ContentBlockDraft, error) {
	r := &runState{
		id:      strings.TrimSpace(in.RunID),
		in:      in,
		outline: in.Project.Outline,
		chapter: in.Project.ChapterCount(),
		onLog:   onLog,
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	if in.Blueprint != nil {
		r.outline = in.Blueprint
	}
	mode := modePlanned
	if hasChapters(in.Blueprint) {
		mode = modeBlueprint
	}

	ctx = logger.WithRunID(ctx, r.id)
	ctx, span := tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("run_id", r.id),
		attribute.String("mode", mode),
	))
	defer span.End()

	start := time.Now()
	drafts, err := e.run(ctx, r)

	status := "success"
	if err != nil {
		status = "failed"
		tracer.RecordError(span, err)
		logger.Error(ctx, "workflow run failed", err, "drafts", len(drafts))
	}
	metrics.WorkflowRuns.WithLabelValues(mode, status).Inc()
	metrics.WorkflowDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	return drafts, err
}

func (e *Engine) run(ctx context.Context, r *runState) ([]entity.ContentBlockDraft, error) {
	r.log(ctx, entity.AgentOrchestrator, entity.LogThinking, "", nil, "Starting workflow")

	plan, style, err := e.planPhase(ctx, r)
	if err != nil {
		r.log(ctx, entity.AgentOrchestrator, entity.LogFailed, "", nil, "Planning failed: "+err.Error())
		return nil, err
	}
	r.log(ctx, entity.AgentOrchestrator, entity.LogSuccess, "", plan, fmt.Sprintf("Plan ready with %d tasks", len(plan.Tasks)))

	if err := e.executePhase(ctx, r, plan, style); err != nil {
		r.log(ctx, entity.AgentOrchestrator, entity.LogFailed, "", nil,
			fmt.Sprintf("Workflow aborted after %d drafts: %s", len(r.drafts), err.Error()))
		return r.drafts, err
	}

	r.log(ctx, entity.AgentOrchestrator, entity.LogSuccess, "", nil, fmt.Sprintf("Workflow complete with %d drafts", len(r.drafts)))
	return r.drafts, nil
}

func (e *Engine) planPhase(ctx context.Context, r *runState) (entity.WorkflowPlan, string, error) {
	if hasChapters(r.in.Blueprint) {
		plan := PlanFromBlueprint(r.in.Blueprint)
		r.log(ctx, entity.AgentPlanner, entity.LogSuccess, "", nil,
			fmt.Sprintf("Using the approved blueprint with %d chapters", len(plan.Tasks)))
		return plan, blueprintStyle(r.in.Blueprint), nil
	}

	r.log(ctx, entity.AgentPlanner, entity.LogThinking, "", nil, "Planning the work")
	r.log(ctx, entity.AgentStylist, entity.LogThinking, "", nil, "Drafting the style guide")

	var (
		planRes  *chain.Result[entity.WorkflowPlan]
		styleRes *chain.Result[string]
		styleErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return guard(func() error {
			var err error
			planRes, err = e.plan.Invoke(gctx, &wfmodel.PlanInput{
				UserRequest:  r.in.UserRequest,
				Project:      r.in.Project,
				Outline:      r.outline,
				StageOptions: e.stageOptions(e.cfg.PlanTemperature, 0, r.in.PreferredVendor),
			})
			return err
		})
	})
	g.Go(func() error {
		styleErr = guard(func() error {
			var err error
			styleRes, err = e.style.Invoke(gctx, &wfmodel.StyleInput{
				UserRequest:  r.in.UserRequest,
				Project:      r.in.Project,
				StageOptions: e.stageOptions(e.cfg.PlanTemperature, 0, r.in.PreferredVendor),
			})
			return err
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		r.log(ctx, entity.AgentPlanner, entity.LogFailed, "", nil, "Planner failed: "+err.Error())
		return entity.WorkflowPlan{}, "", apperrors.ErrPlanningFailed.WithError(err)
	}
	if len(planRes.Value.Tasks) == 0 {
		r.log(ctx, entity.AgentPlanner, entity.LogFailed, planRes.Vendor, nil, "Planner returned no usable tasks")
		return entity.WorkflowPlan{}, "", apperrors.ErrPlanningFailed.WithDetail("planner returned no tasks")
	}
	r.log(ctx, entity.AgentPlanner, entity.LogSuccess, planRes.Vendor, planRes.Value,
		fmt.Sprintf("Planned %d tasks", len(planRes.Value.Tasks)))

	style := ""
	if styleErr != nil {
		r.log(ctx, entity.AgentStylist, entity.LogWarning, "", nil, "Style guide unavailable, continuing without it")
	} else {
		style = styleRes.Value
		r.log(ctx, entity.AgentStylist, entity.LogSuccess, styleRes.Vendor, nil, "Style guide ready")
	}
	return planRes.Value, style, nil
}

func (e *Engine) executePhase(ctx context.Context, r *runState, plan entity.WorkflowPlan, style string) error {
	for i, task := range plan.Tasks {
		if err := ctx.Err(); err != nil {
			return apperrors.ErrWorkflowAborted.WithError(err)
		}
		if !task.IsWriter() {
			metrics.WorkflowTasks.WithLabelValues(string(task.Agent), "skipped").Inc()
			r.log(ctx, entity.AgentOrchestrator, entity.LogWarning, "", nil,
				fmt.Sprintf("Skipping task %d for agent %q", i+1, task.Agent))
			continue
		}
		if err := guard(func() error { return e.executeTask(ctx, r, task, style) }); err != nil {
			return apperrors.ErrWorkflowAborted.WithError(err)
		}
	}
	return nil
}

func (e *Engine) executeTask(ctx context.Context, r *runState, task entity.PlanTask, style string) error {
	number := 0
	if task.IsChapter() {
		number = r.chapter + 1
		task.Title = renumberTitle(task.Title, number)
	}
	label := taskLabel(task)

	r.log(ctx, entity.AgentWriter, entity.LogWorking, "", nil, "Writing "+label)
	res, err := e.writer.Invoke(ctx, &wfmodel.WriterInput{
		Task:          task,
		StyleGuide:    style,
		Project:       r.in.Project,
		Outline:       r.outline,
		ChapterNumber: number,
		StageOptions:  e.stageOptions(e.cfg.WriterTemperature, e.cfg.WriterMaxTokens, r.in.PreferredVendor),
	})
	if err != nil {
		metrics.WorkflowTasks.WithLabelValues(string(entity.AgentWriter), "failed").Inc()
		r.log(ctx, entity.AgentWriter, entity.LogFailed, "", nil, fmt.Sprintf("Writing %s failed: %s", label, err.Error()))
		return err
	}

	content := res.Value.Content
	if content == "" {
		metrics.WorkflowTasks.WithLabelValues(string(entity.AgentWriter), "empty").Inc()
		r.log(ctx, entity.AgentWriter, entity.LogFailed, res.Vendor, nil, fmt.Sprintf("%s produced no content, skipping", label))
		return nil
	}
	if number > 0 {
		r.chapter = number
	}

	if !e.cfg.DisableValidation {
		e.validate(ctx, r, task, content)
	}

	draft := entity.ContentBlockDraft{
		Content:         content,
		AgentSignature:  fmt.Sprintf("%s/%s", entity.AgentWriter, res.Vendor),
		Vendor:          res.Vendor,
		TaskDescription: task.Description,
		Title:           strings.TrimSpace(task.Title),
		Kind:            entity.BlockSection,
		ChapterNumber:   number,
		HelperScript:    res.Value.HelperScript,
	}
	if number > 0 {
		draft.Kind = entity.BlockChapter
	}
	r.drafts = append(r.drafts, draft)

	words := entity.CountWords(content)
	metrics.DraftWordCount.Observe(float64(words))
	metrics.WorkflowTasks.WithLabelValues(string(entity.AgentWriter), "success").Inc()
	r.log(ctx, entity.AgentWriter, entity.LogSuccess, res.Vendor, map[string]any{
		"title":          draft.Title,
		"kind":           draft.Kind,
		"chapter_number": draft.ChapterNumber,
		"word_count":     words,
	}, "Finished "+label)
	return nil
}

// validate 并发执行质量评审与一致性检查，结果只记录不影响草稿
func (e *Engine) validate(ctx context.Context, r *runState, task entity.PlanTask, content string) {
	in := &wfmodel.ReviewInput{
		Task:         task,
		Draft:        content,
		Outline:      r.outline,
		StageOptions: e.stageOptions(e.cfg.ReviewTemperature, 0, ""),
	}
	label := taskLabel(task)

	var g errgroup.Group
	g.Go(func() error {
		err := guard(func() error {
			res, vendor, err := e.review.Critique(ctx, in)
			if err != nil {
				return err
			}
			if res.Approved {
				metrics.WorkflowTasks.WithLabelValues(string(entity.AgentCritic), "approved").Inc()
				r.log(ctx, entity.AgentCritic, entity.LogSuccess, vendor, res, "Approved "+label)
			} else {
				metrics.WorkflowTasks.WithLabelValues(string(entity.AgentCritic), "needs_polish").Inc()
				r.log(ctx, entity.AgentCritic, entity.LogWarning, vendor, res, label+" needs polish")
			}
			return nil
		})
		if err != nil {
			r.log(ctx, entity.AgentCritic, entity.LogWarning, "", nil, "Critique unavailable: "+err.Error())
		}
		return nil
	})
	g.Go(func() error {
		err := guard(func() error {
			res, vendor, err := e.review.CheckConsistency(ctx, in)
			if err != nil {
				return err
			}
			if res.Consistent {
				metrics.WorkflowTasks.WithLabelValues(string(entity.AgentContinuity), "pass").Inc()
				r.log(ctx, entity.AgentContinuity, entity.LogSuccess, vendor, res, label+" is consistent with the roster")
			} else {
				metrics.WorkflowTasks.WithLabelValues(string(entity.AgentContinuity), "fail").Inc()
				r.log(ctx, entity.AgentContinuity, entity.LogWarning, vendor, res,
					fmt.Sprintf("%s has %d continuity issues", label, len(res.Issues)))
			}
			return nil
		})
		if err != nil {
			r.log(ctx, entity.AgentContinuity, entity.LogWarning, "", nil, "Consistency check unavailable: "+err.Error())
		}
		return nil
	})
	_ = g.Wait()
}

func (e *Engine) stageOptions(temperature float32, maxTokens int, preferred entity.VendorName) wfmodel.StageOptions {
	o := wfmodel.StageOptions{
		Language:        e.cfg.DefaultLanguage,
		PreferredVendor: preferred,
	}
	if temperature > 0 {
		t := temperature
		o.Temperature = &t
	}
	if maxTokens > 0 {
		m := maxTokens
		o.MaxTokens = &m
	}
	return o
}

// guard 将 panic 转换为错误
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

var chapterPrefix = regexp.MustCompile(`^(?i:chapter)\s+\d+`)

// renumberTitle 把标题开头的 "Chapter N" 改为本次运行分配的章节号
func renumberTitle(title string, number int) string {
	title = strings.TrimSpace(title)
	loc := chapterPrefix.FindStringIndex(title)
	if loc == nil {
		return title
	}
	return fmt.Sprintf("Chapter %d", number) + title[loc[1]:]
}

func hasChapters(outline *entity.SynthesisOutline) bool {
	return outline != nil && len(outline.Chapters) > 0
}

func taskLabel(task entity.PlanTask) string {
	if t := strings.TrimSpace(task.Title); t != "" {
		return t
	}
	return fmt.Sprintf("%q", wfnode.Headline(task.Description, 60))
}
