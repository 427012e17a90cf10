package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/infrastructure/llm"
)

func vendorsOf(ps []llm.Provider) []entity.VendorName {
	out := make([]entity.VendorName, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Vendor().Name)
	}
	return out
}

func TestSelectVendorReturnsVendorIffAvailableNonEmpty(t *testing.T) {
	router := NewRouter(nil)
	subsets := [][]llm.Provider{
		nil,
		{newFake(entity.VendorDoubao)},
		{newFake(entity.VendorGemini), newFake(entity.VendorOpenAI)},
		{newFake(entity.VendorMistral), newFake(entity.VendorDeepSeek), newFake(entity.VendorDoubao)},
	}
	for _, category := range entity.AllTaskCategories() {
		for _, available := range subsets {
			m, ok := router.SelectVendor(category, available)
			assert.Equal(t, len(available) > 0, ok, "category %s with %d vendors", category, len(available))
			if ok {
				assert.Contains(t, vendorsOf(available), m.Vendor)
			}
		}
	}
}

func TestSelectVendorHonorsPreferenceOrder(t *testing.T) {
	router := NewRouter(map[string][]string{"writing": {"mistral", "deepseek", "gemini"}})
	available := []llm.Provider{newFake(entity.VendorGemini), newFake(entity.VendorDeepSeek)}

	m, ok := router.SelectVendor(entity.TaskWriting, available)
	require.True(t, ok)
	assert.Equal(t, entity.VendorDeepSeek, m.Vendor)
	assert.Equal(t, "deepseek-model", m.ModelID)
}

func TestSelectVendorFallsBackToRegistryOrder(t *testing.T) {
	router := NewRouter(nil)
	available := []llm.Provider{newFake(entity.VendorDoubao), newFake(entity.VendorMistral)}

	m, ok := router.SelectVendor(entity.TaskImageGeneration, available)
	require.True(t, ok)
	assert.Equal(t, entity.VendorDoubao, m.Vendor)
}

func TestTryOrder(t *testing.T) {
	router := NewRouter(nil)
	available := []llm.Provider{
		newFake(entity.VendorGemini),
		newFake(entity.VendorOpenAI),
		newFake(entity.VendorDoubao),
		newFake(entity.VendorMistral),
	}

	tests := []struct {
		name     string
		category entity.TaskCategory
		override entity.VendorName
		want     []entity.VendorName
	}{
		{
			name:     "preference order then registry order",
			category: entity.TaskCritique,
			want:     []entity.VendorName{entity.VendorOpenAI, entity.VendorGemini, entity.VendorMistral, entity.VendorDoubao},
		},
		{
			name:     "override goes first",
			category: entity.TaskWriting,
			override: entity.VendorDoubao,
			want:     []entity.VendorName{entity.VendorDoubao, entity.VendorMistral, entity.VendorGemini, entity.VendorOpenAI},
		},
		{
			name:     "unavailable override is ignored",
			category: entity.TaskWriting,
			override: entity.VendorDeepSeek,
			want:     []entity.VendorName{entity.VendorMistral, entity.VendorGemini, entity.VendorOpenAI, entity.VendorDoubao},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vendorsOf(router.TryOrder(tt.category, available, tt.override)))
		})
	}
}

func TestNewRouterIgnoresUnknownEntries(t *testing.T) {
	router := NewRouter(map[string][]string{
		"nonsense": {"openai"},
		"editing":  {"doubao", "skynet"},
	})
	assert.Equal(t, []entity.VendorName{entity.VendorDoubao}, router.Preferences(entity.TaskEditing))
	assert.Equal(t, DefaultPreferences()[entity.TaskPlanning], router.Preferences(entity.TaskPlanning))
}
