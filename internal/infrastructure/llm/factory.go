package llm

import (
	"z-book-agent/internal/config"
	"z-book-agent/internal/domain/entity"
	zredis "z-book-agent/internal/infrastructure/persistence/redis"
)

// BuildProviders 按固定顺序为全部已知供应商创建适配器
// 缺少凭证的供应商同样创建，只是标记为未配置
func BuildProviders(cfg *config.LLMConfig, limiter Limiter) []Provider {
	out := make([]Provider, 0, len(entity.AllVendors()))
	for _, name := range entity.AllVendors() {
		vc := cfg.Vendor(string(name))
		var p Provider
		switch name {
		case entity.VendorOpenAI:
			p = NewOpenAIProvider(vc)
		case entity.VendorDoubao:
			p = NewArkProvider(vc)
		default:
			p = WithEinoEmbeddings(NewOpenAICompatibleProvider(name, vc), vc)
		}
		out = append(out, WithRateLimit(p, limiter, zredis.BuildVendorRateLimitKey(string(name)), vc.RateLimit, vc.RateLimitWindow))
	}
	return out
}
