package llm

import "z-book-agent/internal/domain/entity"

type modelSpec struct {
	id        string
	display   string
	strengths []string
}

type vendorSpec struct {
	display      string
	capabilities []entity.Capability
	models       []modelSpec
}

// catalog 静态模型表，启动时据此生成 ModelDescriptor
var catalog = map[entity.VendorName]vendorSpec{
	entity.VendorGemini: {
		display:      "Google Gemini",
		capabilities: []entity.Capability{entity.CapabilityLargeContext, entity.CapabilityJSONMode},
		models: []modelSpec{
			{id: "gemini-2.5-flash", display: "Gemini 2.5 Flash", strengths: []string{"fast", "long context", "structured output"}},
			{id: "gemini-2.5-pro", display: "Gemini 2.5 Pro", strengths: []string{"reasoning", "planning", "long context"}},
		},
	},
	entity.VendorOpenAI: {
		display: "OpenAI",
		capabilities: []entity.Capability{
			entity.CapabilityImages,
			entity.CapabilityJSONMode,
			entity.CapabilityMultimodalInput,
			entity.CapabilityEmbeddings,
		},
		models: []modelSpec{
			{id: "gpt-4o", display: "GPT-4o", strengths: []string{"editing", "multimodal", "instruction following"}},
			{id: "gpt-4o-mini", display: "GPT-4o mini", strengths: []string{"fast", "cheap"}},
		},
	},
	entity.VendorDeepSeek: {
		display:      "DeepSeek",
		capabilities: []entity.Capability{entity.CapabilityJSONMode},
		models: []modelSpec{
			{id: "deepseek-chat", display: "DeepSeek V3", strengths: []string{"long-form prose", "cost efficient"}},
			{id: "deepseek-reasoner", display: "DeepSeek R1", strengths: []string{"multi-step reasoning", "critique"}},
		},
	},
	entity.VendorMistral: {
		display:      "Mistral AI",
		capabilities: []entity.Capability{entity.CapabilityJSONMode},
		models: []modelSpec{
			{id: "mistral-large-latest", display: "Mistral Large", strengths: []string{"creative writing", "multilingual"}},
			{id: "mistral-small-latest", display: "Mistral Small", strengths: []string{"fast"}},
		},
	},
	entity.VendorDoubao: {
		display:      "Doubao (Volcengine Ark)",
		capabilities: []entity.Capability{entity.CapabilityLargeContext},
		models: []modelSpec{
			{id: "doubao-seed-1-6-250615", display: "Doubao Seed 1.6", strengths: []string{"chinese prose", "quick response"}},
		},
	},
}

// describeModels 生成模型描述，配置的模型不在表中时补在最前
func describeModels(name entity.VendorName, configuredModel string, available bool) []entity.ModelDescriptor {
	spec := catalog[name]
	out := make([]entity.ModelDescriptor, 0, len(spec.models)+1)
	found := configuredModel == ""
	for _, m := range spec.models {
		if m.id == configuredModel {
			found = true
		}
	}
	if !found {
		out = append(out, entity.ModelDescriptor{
			Vendor:      name,
			ModelID:     configuredModel,
			DisplayName: configuredModel,
			Available:   available,
		})
	}
	for _, m := range spec.models {
		out = append(out, entity.ModelDescriptor{
			Vendor:      name,
			ModelID:     m.id,
			DisplayName: m.display,
			Strengths:   append([]string(nil), m.strengths...),
			Available:   available,
		})
	}
	return out
}

func displayName(name entity.VendorName) string {
	if spec, ok := catalog[name]; ok {
		return spec.display
	}
	return string(name)
}
