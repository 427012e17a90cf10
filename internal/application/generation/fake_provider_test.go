package generation

import (
	"context"
	"errors"
	"sync"

	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/infrastructure/llm"
)

// fakeProvider 按脚本返回结果的适配器，脚本用尽后重复最后一项
type fakeProvider struct {
	name       entity.VendorName
	configured bool
	script     []fakeResult

	mu    sync.Mutex
	calls int
}

type fakeResult struct {
	text string
	err  error
}

func okResult(text string) fakeResult { return fakeResult{text: text} }

func errResult(msg string) fakeResult { return fakeResult{err: errors.New(msg)} }

func rateLimited(name entity.VendorName) fakeResult {
	return fakeResult{err: &llm.VendorError{Vendor: name, StatusCode: 429, Body: "rate limit"}}
}

func newFake(name entity.VendorName, script ...fakeResult) *fakeProvider {
	return &fakeProvider{name: name, configured: true, script: script}
}

func unconfigured(name entity.VendorName) *fakeProvider {
	return &fakeProvider{name: name}
}

func (p *fakeProvider) Vendor() entity.Vendor {
	return entity.Vendor{Name: p.name, DisplayName: string(p.name), Configured: p.configured}
}

func (p *fakeProvider) Models() []entity.ModelDescriptor {
	return []entity.ModelDescriptor{{Vendor: p.name, ModelID: string(p.name) + "-model", Available: p.configured}}
}

func (p *fakeProvider) IsConfigured() bool { return p.configured }

func (p *fakeProvider) CheckAvailability(context.Context) bool { return p.configured }

func (p *fakeProvider) ModelID() string { return string(p.name) + "-model" }

func (p *fakeProvider) GenerateText(context.Context, entity.Prompt, entity.GenerateOptions) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.script) == 0 {
		return "", errors.New("no script")
	}
	r := p.script[0]
	if len(p.script) > 1 {
		p.script = p.script[1:]
	}
	return r.text, r.err
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fakeImageProvider 额外支持图片生成
type fakeImageProvider struct {
	*fakeProvider
	image string
}

func (p *fakeImageProvider) GenerateImage(context.Context, string) (string, error) {
	return p.image, nil
}
