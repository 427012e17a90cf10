// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Routing       RoutingConfig       `yaml:"routing" mapstructure:"routing"`
	Generation    GenerationConfig    `yaml:"generation" mapstructure:"generation"`
	Workflow      WorkflowConfig      `yaml:"workflow" mapstructure:"workflow"`
	Synthesis     SynthesisConfig     `yaml:"synthesis" mapstructure:"synthesis"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Messaging     MessagingConfig     `yaml:"messaging" mapstructure:"messaging"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// LLMConfig 各供应商接入配置，键为供应商名
type LLMConfig struct {
	Vendors map[string]VendorConfig `yaml:"vendors" mapstructure:"vendors"`
}

// VendorConfig 单个供应商配置
type VendorConfig struct {
	// APIKey 为空表示该供应商未配置，不视为启动错误
	APIKey     string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	Model      string        `yaml:"model" mapstructure:"model"`
	ImageModel string        `yaml:"image_model" mapstructure:"image_model"`
	EmbedModel string        `yaml:"embed_model" mapstructure:"embed_model"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// RateLimit 每个窗口内允许的调用次数，0 表示不限流
	RateLimit       int           `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window" mapstructure:"rate_limit_window"`
}

// RoutingConfig 任务类别到供应商偏好顺序的映射，未配置的类别使用内置表
type RoutingConfig struct {
	Preferences map[string][]string `yaml:"preferences" mapstructure:"preferences"`
}

// GenerationConfig 容错生成门面配置
type GenerationConfig struct {
	MaxAttemptsPerVendor int           `yaml:"max_attempts_per_vendor" mapstructure:"max_attempts_per_vendor"`
	RateLimitBackoff     time.Duration `yaml:"rate_limit_backoff" mapstructure:"rate_limit_backoff"`
}

// WorkflowConfig 多智能体工作流配置
type WorkflowConfig struct {
	PlanTemperature   float32 `yaml:"plan_temperature" mapstructure:"plan_temperature"`
	WriterTemperature float32 `yaml:"writer_temperature" mapstructure:"writer_temperature"`
	ReviewTemperature float32 `yaml:"review_temperature" mapstructure:"review_temperature"`
	WriterMaxTokens   int     `yaml:"writer_max_tokens" mapstructure:"writer_max_tokens"`
	DefaultLanguage   string  `yaml:"default_language" mapstructure:"default_language"`
	PublishLogs       bool    `yaml:"publish_logs" mapstructure:"publish_logs"`
	DisableValidation bool    `yaml:"validation_disabled" mapstructure:"validation_disabled"`
}

// SynthesisConfig 素材合成的截断上限，单位为字符，0 表示不截断
type SynthesisConfig struct {
	DocumentLimit int `yaml:"document_limit" mapstructure:"document_limit"`
	URLLimit      int `yaml:"url_limit" mapstructure:"url_limit"`
	DefaultLimit  int `yaml:"default_limit" mapstructure:"default_limit"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// MessagingConfig 消息配置
type MessagingConfig struct {
	RedisStream RedisStreamConfig `yaml:"redis_stream" mapstructure:"redis_stream"`
}

// RedisStreamConfig Redis Stream 配置
type RedisStreamConfig struct {
	MaxLen       int64         `yaml:"max_len" mapstructure:"max_len"`
	StreamPrefix string        `yaml:"stream_prefix" mapstructure:"stream_prefix"`
	TTL          time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

// RateLimitConfig HTTP 入口限流配置，依赖 Redis
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// Vendor 返回指定供应商的配置，不存在时返回零值
func (c *LLMConfig) Vendor(name string) VendorConfig {
	if c == nil || c.Vendors == nil {
		return VendorConfig{}
	}
	return c.Vendors[name]
}
