package chain

import (
	"strings"

	"z-book-agent/internal/domain/entity"
	wfmodel "z-book-agent/internal/workflow/model"
)

const defaultLanguage = "English"

func stageOptions(o wfmodel.StageOptions, format entity.ResponseFormat) (entity.GenerateOptions, entity.VendorName) {
	return entity.GenerateOptions{
		Temperature:     o.Temperature,
		MaxOutputTokens: o.MaxTokens,
		ResponseFormat:  format,
	}, o.PreferredVendor
}

func languageOf(o wfmodel.StageOptions, settings entity.ProjectSettings) string {
	if l := strings.TrimSpace(settings.Language); l != "" {
		return l
	}
	if l := strings.TrimSpace(o.Language); l != "" {
		return l
	}
	return defaultLanguage
}
