// Package service 提供跨层共享的调用上下文
package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyStage  llmCtxKey = "llm_stage"
	llmCtxKeyVendor llmCtxKey = "llm_vendor"
)

const unknown = "unknown"

// WithStage 标记当前调用所属的工作流阶段，例如 plan、writer、critique
func WithStage(ctx context.Context, stage string) context.Context {
	s := strings.TrimSpace(stage)
	if s == "" {
		return ctx
	}
	return context.WithValue(ctx, llmCtxKeyStage, s)
}

// WithVendor 标记实际发起调用的供应商
func WithVendor(ctx context.Context, vendor string) context.Context {
	v := strings.TrimSpace(vendor)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, llmCtxKeyVendor, v)
}

func WithStageVendor(ctx context.Context, stage, vendor string) context.Context {
	return WithVendor(WithStage(ctx, stage), vendor)
}

func StageFromContext(ctx context.Context) string {
	return stringValue(ctx, llmCtxKeyStage)
}

func VendorFromContext(ctx context.Context) string {
	return stringValue(ctx, llmCtxKeyVendor)
}

func stringValue(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return unknown
	}
	s, ok := ctx.Value(key).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}
