package node

import (
	"fmt"
	"strings"

	"z-book-agent/internal/domain/entity"
)

// 提示词中单条已有内容摘要的最大长度
const blockSummaryRunes = 200

// BuildRosterBlock 拼接人物、地点、物品名册，大纲为空时返回空串
func BuildRosterBlock(outline *entity.SynthesisOutline) string {
	if outline == nil {
		return ""
	}
	sections := make([]string, 0, 3)
	for _, group := range []struct {
		title   string
		entries []entity.RosterEntry
	}{
		{"Characters", outline.Characters},
		{"Locations", outline.Locations},
		{"Items", outline.Items},
	} {
		if s := rosterSection(group.title, group.entries); s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n\n")
}

func rosterSection(title string, entries []entity.RosterEntry) string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, title+":")
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		if desc := strings.TrimSpace(e.Description); desc != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", name, desc))
		} else {
			lines = append(lines, "- "+name)
		}
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// BuildExistingBlocks 列出项目中已有的内容块，最多 maxItems 条，取最近的部分
func BuildExistingBlocks(blocks []entity.BlockSummary, maxItems int) string {
	if len(blocks) == 0 {
		return "(none)"
	}
	if maxItems > 0 && len(blocks) > maxItems {
		blocks = blocks[len(blocks)-maxItems:]
	}
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		label := strings.TrimSpace(b.Title)
		if label == "" {
			label = string(b.Kind)
		}
		if b.Kind == entity.BlockChapter && b.ChapterNumber > 0 {
			label = fmt.Sprintf("[chapter %d] %s", b.ChapterNumber, label)
		}
		if s := strings.TrimSpace(b.Summary); s != "" {
			label += ": " + TruncateByRunes(s, blockSummaryRunes)
		}
		lines = append(lines, "- "+label)
	}
	return strings.Join(lines, "\n")
}

// BuildOutlineBlock 供规划阶段使用的大纲摘要
func BuildOutlineBlock(outline *entity.SynthesisOutline) string {
	if outline == nil {
		return "(none)"
	}
	parts := make([]string, 0, 3)
	if len(outline.Themes) > 0 {
		parts = append(parts, "Themes: "+strings.Join(outline.Themes, ", "))
	}
	if len(outline.Chapters) > 0 {
		lines := make([]string, 0, len(outline.Chapters))
		for _, c := range outline.Chapters {
			lines = append(lines, fmt.Sprintf("%d. %s - %s", c.Number, c.Title, c.Summary))
		}
		parts = append(parts, "Chapters:\n"+strings.Join(lines, "\n"))
	}
	if len(outline.Guidelines) > 0 {
		parts = append(parts, "Guidelines:\n- "+strings.Join(outline.Guidelines, "\n- "))
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, "\n\n")
}

// BuildPersonaBlock 项目设置中的作者人设
func BuildPersonaBlock(settings entity.ProjectSettings) string {
	persona := strings.TrimSpace(settings.Persona)
	if persona == "" {
		return ""
	}
	return "Write as the following persona: " + persona
}
