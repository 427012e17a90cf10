package synthesis

import (
	"strings"

	"z-book-agent/internal/domain/entity"
	wfnode "z-book-agent/internal/workflow/node"
)

// 启发式大纲中单条要点的最大长度
const keyIdeaRunes = 280

// fallbackOutline 模型调用或解析失败时仅依据准则与笔记生成大纲
func fallbackOutline(items []entity.InputItem) *entity.SynthesisOutline {
	out := entity.EmptyOutline()
	out.Fallback = true

	contextParts := make([]string, 0, len(items))
	for _, item := range items {
		content := strings.TrimSpace(item.Content)
		if content == "" {
			continue
		}
		switch item.Type {
		case entity.InputGuideline:
			out.Guidelines = append(out.Guidelines, content)
			contextParts = append(contextParts, content)
		case entity.InputNote:
			out.KeyIdeas = append(out.KeyIdeas, wfnode.TruncateByRunes(PlainText(content), keyIdeaRunes))
			contextParts = append(contextParts, content)
		}
	}
	out.UnifiedContext = strings.Join(contextParts, "\n\n")
	out.Chapters = []entity.OutlineChapter{
		{Number: 1, Title: "Introduction", Summary: "Introduce the premise, the setting and the central question."},
		{Number: 2, Title: "Development", Summary: "Develop the main ideas and raise the stakes."},
		{Number: 3, Title: "Conclusion", Summary: "Resolve the central question and close the open threads."},
	}
	return out
}
