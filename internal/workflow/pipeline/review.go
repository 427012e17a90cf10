package pipeline

import (
	"context"
	"fmt"
	"strings"

	"z-book-agent/internal/application/generation"
	"z-book-agent/internal/domain/entity"
	llmctx "z-book-agent/internal/domain/service"
	wfmodel "z-book-agent/internal/workflow/model"
	wfnode "z-book-agent/internal/workflow/node"
	workflowport "z-book-agent/internal/workflow/port"
	workflowprompt "z-book-agent/internal/workflow/prompt"
)

// 评审提示词中草稿的最大长度
const reviewDraftRunes = 20000

// ReviewPipeline 草稿的质量评审与一致性检查，结论仅供参考
type ReviewPipeline struct {
	gen     workflowport.Generator
	prompts *workflowprompt.Registry
}

func NewReviewPipeline(gen workflowport.Generator, prompts *workflowprompt.Registry) *ReviewPipeline {
	if prompts == nil {
		prompts = workflowprompt.NewRegistry()
	}
	return &ReviewPipeline{gen: gen, prompts: prompts}
}

// Critique 质量评审，无法解析时视为需要润色
func (p *ReviewPipeline) Critique(ctx context.Context, in *wfmodel.ReviewInput) (*wfmodel.CritiqueResult, entity.VendorName, error) {
	if err := p.validate(in); err != nil {
		return nil, "", err
	}
	vars := map[string]any{
		"task_title":       wfnode.OrNone(in.Task.Title),
		"task_description": wfnode.OrNone(in.Task.Description),
		"draft":            wfnode.TruncateByRunes(strings.TrimSpace(in.Draft), reviewDraftRunes),
	}
	raw, vendor, err := p.generate(ctx, "critique", workflowprompt.PromptCritiqueV1, entity.TaskCritique, vars, in.StageOptions)
	if err != nil {
		return nil, vendor, err
	}
	out := wfnode.ParseOrFallback(raw, wfmodel.CritiqueResult{Approved: false, Feedback: wfnode.StripCodeFences(raw)})
	return &out, vendor, nil
}

// CheckConsistency 对照名册检查草稿，无法解析时视为未通过
func (p *ReviewPipeline) CheckConsistency(ctx context.Context, in *wfmodel.ReviewInput) (*wfmodel.ConsistencyResult, entity.VendorName, error) {
	if err := p.validate(in); err != nil {
		return nil, "", err
	}
	roster := wfnode.BuildRosterBlock(in.Outline)
	if roster == "" {
		roster = "Roster: (none)"
	}
	vars := map[string]any{
		"roster_block": roster,
		"draft":        wfnode.TruncateByRunes(strings.TrimSpace(in.Draft), reviewDraftRunes),
	}
	raw, vendor, err := p.generate(ctx, "consistency", workflowprompt.PromptConsistencyV1, entity.TaskEditing, vars, in.StageOptions)
	if err != nil {
		return nil, vendor, err
	}
	out := wfnode.ParseOrFallback(raw, wfmodel.ConsistencyResult{Consistent: false, Issues: []string{"unparseable consistency report"}})
	return &out, vendor, nil
}

func (p *ReviewPipeline) validate(in *wfmodel.ReviewInput) error {
	if p == nil || p.gen == nil {
		return fmt.Errorf("generator not configured")
	}
	if in == nil {
		return fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Draft) == "" {
		return fmt.Errorf("draft is empty")
	}
	return nil
}

func (p *ReviewPipeline) generate(
	ctx context.Context,
	stage string,
	id workflowprompt.PromptID,
	category entity.TaskCategory,
	vars map[string]any,
	opts wfmodel.StageOptions,
) (string, entity.VendorName, error) {
	tpl, err := p.prompts.ChatTemplate(id)
	if err != nil {
		return "", "", err
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", "", err
	}
	system, user := wfnode.SplitMessages(msgs)

	ctx = llmctx.WithStage(ctx, stage)
	res, err := p.gen.Generate(ctx, generation.GenerateRequest{
		Prompt:   entity.TextPrompt(user),
		Category: category,
		Options: entity.GenerateOptions{
			SystemInstruction: system,
			Temperature:       opts.Temperature,
			MaxOutputTokens:   opts.MaxTokens,
			ResponseFormat:    entity.ResponseJSON,
		},
	})
	if err != nil {
		return "", "", err
	}
	return res.Text, res.Vendor, nil
}
