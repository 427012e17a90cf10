package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-book-agent/internal/domain/entity"
)

func TestPromptTextOnlyDropsBinaryParts(t *testing.T) {
	p := entity.PartsPrompt(
		entity.TextPart("first"),
		entity.InlinePart("image/png", []byte{1, 2, 3}, "cover.png"),
		entity.FilePart("application/pdf", "https://example.com/a.pdf"),
		entity.TextPart("second"),
	)

	assert.True(t, p.HasBinary())
	assert.Equal(t, "first\nsecond", p.TextOnly())
	assert.Equal(t, "plain", entity.TextPrompt("plain").TextOnly())
}

func TestPlanTaskClassification(t *testing.T) {
	tests := []struct {
		name        string
		task        entity.PlanTask
		wantWriter  bool
		wantChapter bool
	}{
		{"writer chapter title", entity.PlanTask{Agent: "Writer", Title: "Chapter 3: The Storm"}, true, true},
		{"writer description", entity.PlanTask{Agent: "writer", Description: "Draft the CHAPTER about rain"}, true, true},
		{"writer section", entity.PlanTask{Agent: "writer", Description: "Write the preface"}, true, false},
		{"critic", entity.PlanTask{Agent: "critic", Description: "Review chapter 1"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantWriter, tt.task.IsWriter())
			assert.Equal(t, tt.wantChapter, tt.task.IsChapter())
		})
	}
}

func TestParseTaskCategory(t *testing.T) {
	c, err := entity.ParseTaskCategory(" Writing ")
	require.NoError(t, err)
	assert.Equal(t, entity.TaskWriting, c)

	c, err = entity.ParseTaskCategory("")
	require.NoError(t, err)
	assert.Equal(t, entity.TaskQuickResponse, c)

	_, err = entity.ParseTaskCategory("painting")
	assert.Error(t, err)
}

func TestParseVendorName(t *testing.T) {
	v, err := entity.ParseVendorName("DeepSeek")
	require.NoError(t, err)
	assert.Equal(t, entity.VendorDeepSeek, v)

	_, err = entity.ParseVendorName("acme")
	assert.Error(t, err)
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, entity.CountWords(""))
	assert.Equal(t, 4, entity.CountWords("The storm, arrived early."))
	assert.Equal(t, 4, entity.CountWords("风暴来了"))
	assert.Equal(t, 3, entity.CountWords("hello 世界"))
}

func TestChapterCountAndNormalize(t *testing.T) {
	p := entity.ProjectSnapshot{Blocks: []entity.BlockSummary{
		{Kind: entity.BlockChapter}, {Kind: entity.BlockSection}, {Kind: entity.BlockChapter},
	}}
	assert.Equal(t, 2, p.ChapterCount())

	o := &entity.SynthesisOutline{Chapters: []entity.OutlineChapter{{Title: "a"}, {Number: 7, Title: "b"}}}
	o.Normalize()
	assert.Equal(t, 1, o.Chapters[0].Number)
	assert.Equal(t, 7, o.Chapters[1].Number)
	assert.NotNil(t, o.Themes)
	assert.NotNil(t, o.Items)
}

func TestOutlineCloneIsDeep(t *testing.T) {
	orig := &entity.SynthesisOutline{
		Themes:   []string{"loss"},
		Chapters: []entity.OutlineChapter{{Number: 1, Title: "Arrival", KeyPoints: []string{"storm"}}},
	}
	cp := orig.Clone()
	cp.Themes[0] = "hope"
	cp.Chapters[0].KeyPoints[0] = "calm"

	assert.Equal(t, "loss", orig.Themes[0])
	assert.Equal(t, "storm", orig.Chapters[0].KeyPoints[0])
	assert.Nil(t, orig.Clone().Locations)
}
