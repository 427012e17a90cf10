// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// vendorEnvKeys 供应商凭证对应的环境变量，配置文件未给出 api_key 时读取
var vendorEnvKeys = map[string]string{
	"gemini":   "GEMINI_API_KEY",
	"openai":   "OPENAI_API_KEY",
	"deepseek": "DEEPSEEK_API_KEY",
	"mistral":  "MISTRAL_API_KEY",
	"doubao":   "ARK_API_KEY",
}

var envPattern = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 从 configs 目录加载配置
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	return LoadFrom("configs")
}

// LoadFrom 从指定目录加载配置，目录下没有 config.yaml 时仅使用默认值
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), true); err != nil {
		return nil, err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := loadConfigFile(v, filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env)), true); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyVendorEnv(&cfg)

	return &cfg, nil
}

// loadConfigFile 读取文件，执行环境变量替换，并合并到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(content)))
	if err := v.MergeConfig(reader); err != nil {
		return fmt.Errorf("failed to merge config %s: %w", path, err)
	}
	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符，未定义且无默认值的变量原样保留
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := envPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		if sub[2] != "" {
			return sub[3]
		}
		return match
	})
}

// applyVendorEnv 为缺少凭证的供应商补充环境变量中的凭证
func applyVendorEnv(cfg *Config) {
	if cfg.LLM.Vendors == nil {
		cfg.LLM.Vendors = make(map[string]VendorConfig)
	}
	for name, envKey := range vendorEnvKeys {
		vc := cfg.LLM.Vendors[name]
		if strings.HasPrefix(vc.APIKey, "${") {
			vc.APIKey = ""
		}
		if vc.APIKey == "" {
			vc.APIKey = strings.TrimSpace(os.Getenv(envKey))
		}
		cfg.LLM.Vendors[name] = vc
	}
}

// MustLoad 加载配置，失败时 panic
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "z-book-agent")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "0s")
	v.SetDefault("server.http.idle_timeout", "120s")

	// 供应商默认端点与模型
	v.SetDefault("llm.vendors.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("llm.vendors.gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.vendors.gemini.timeout", "120s")
	v.SetDefault("llm.vendors.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.vendors.openai.model", "gpt-4o")
	v.SetDefault("llm.vendors.openai.image_model", "gpt-image-1")
	v.SetDefault("llm.vendors.openai.embed_model", "text-embedding-3-small")
	v.SetDefault("llm.vendors.openai.timeout", "120s")
	v.SetDefault("llm.vendors.deepseek.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("llm.vendors.deepseek.model", "deepseek-chat")
	v.SetDefault("llm.vendors.deepseek.timeout", "180s")
	v.SetDefault("llm.vendors.mistral.base_url", "https://api.mistral.ai/v1")
	v.SetDefault("llm.vendors.mistral.model", "mistral-large-latest")
	v.SetDefault("llm.vendors.mistral.timeout", "120s")
	v.SetDefault("llm.vendors.doubao.base_url", "https://ark.cn-beijing.volces.com/api/v3")
	v.SetDefault("llm.vendors.doubao.model", "doubao-seed-1-6-250615")
	v.SetDefault("llm.vendors.doubao.timeout", "120s")

	v.SetDefault("generation.max_attempts_per_vendor", 2)
	v.SetDefault("generation.rate_limit_backoff", "1s")

	v.SetDefault("workflow.plan_temperature", 0.4)
	v.SetDefault("workflow.writer_temperature", 0.8)
	v.SetDefault("workflow.review_temperature", 0.2)
	v.SetDefault("workflow.writer_max_tokens", 8192)
	v.SetDefault("workflow.default_language", "English")
	v.SetDefault("workflow.publish_logs", false)
	v.SetDefault("workflow.validation_disabled", false)

	v.SetDefault("synthesis.document_limit", 5000)
	v.SetDefault("synthesis.url_limit", 3000)
	v.SetDefault("synthesis.default_limit", 2000)

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 20)
	v.SetDefault("cache.redis.min_idle_conns", 2)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")

	v.SetDefault("messaging.redis_stream.max_len", 2000)
	v.SetDefault("messaging.redis_stream.stream_prefix", "stream:agent_log")
	v.SetDefault("messaging.redis_stream.ttl", "72h")

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-Request-ID"})
	v.SetDefault("security.rate_limit.enabled", false)
	v.SetDefault("security.rate_limit.requests_per_minute", 60)
}
