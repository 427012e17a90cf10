package synthesis

import (
	"context"
	"fmt"
	"strings"

	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	wfnode "z-book-agent/internal/workflow/node"
	workflowprompt "z-book-agent/internal/workflow/prompt"
)

// limitFor 每种素材的截断上限，0 表示不截断
func limitFor(cfg config.SynthesisConfig, t entity.InputType) int {
	switch t {
	case entity.InputDocument:
		return cfg.DocumentLimit
	case entity.InputURL:
		return cfg.URLLimit
	case entity.InputNote, entity.InputGuideline:
		return 0
	default:
		return cfg.DefaultLimit
	}
}

// excerpt 带类型标签的文本片段
func excerpt(cfg config.SynthesisConfig, item entity.InputItem) string {
	content := strings.TrimSpace(item.Content)
	if item.Type == entity.InputDocument || item.Type == entity.InputNote || item.Type == entity.InputGuideline {
		content = PlainText(content)
	}
	if limit := limitFor(cfg, item.Type); limit > 0 {
		content = wfnode.TruncateByRunes(content, limit)
	}
	tag := strings.ToUpper(string(item.Type))
	if tag == "" {
		tag = strings.ToUpper(string(entity.InputOther))
	}
	name := strings.TrimSpace(item.Name)
	if name == "" {
		name = "untitled"
	}
	return fmt.Sprintf("[%s] %s\n%s", tag, name, content)
}

// buildPrompt 固定说明加上每份素材一个片段，图片与 PDF 以内联二进制提交
func buildPrompt(ctx context.Context, prompts *workflowprompt.Registry, cfg config.SynthesisConfig, items []entity.InputItem) (entity.Prompt, string, error) {
	tpl, err := prompts.ChatTemplate(workflowprompt.PromptSynthesisV1)
	if err != nil {
		return entity.Prompt{}, "", err
	}
	msgs, err := tpl.Format(ctx, map[string]any{"source_count": len(items)})
	if err != nil {
		return entity.Prompt{}, "", err
	}
	system, header := wfnode.SplitMessages(msgs)

	parts := make([]entity.ContentPart, 0, len(items)+1)
	parts = append(parts, entity.TextPart(header))
	for _, item := range items {
		if item.IsBinary() {
			parts = append(parts,
				entity.TextPart(fmt.Sprintf("[%s] %s", strings.ToUpper(string(item.Type)), item.Name)),
				entity.InlinePart(mimeTypeOf(item), item.Data, item.Name),
			)
			continue
		}
		parts = append(parts, entity.TextPart(excerpt(cfg, item)))
	}
	return entity.PartsPrompt(parts...), system, nil
}

func mimeTypeOf(item entity.InputItem) string {
	if item.MimeType != "" {
		return item.MimeType
	}
	if item.Type == entity.InputPDF {
		return "application/pdf"
	}
	return "image/png"
}
