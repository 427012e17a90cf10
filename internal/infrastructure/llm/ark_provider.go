package llm

import (
	"context"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
)

// NewArkProvider 为火山方舟（豆包）创建适配器
// 方舟对 response_format 的支持因模型而异，JSON 约束统一通过系统提示词传递
func NewArkProvider(cfg config.VendorConfig) *EinoProvider {
	return NewEinoProvider(entity.VendorDoubao, cfg.APIKey, cfg.Model, false, func(ctx context.Context) (model.BaseChatModel, error) {
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			HTTPClient: &http.Client{Timeout: cfg.Timeout},
		})
	})
}
