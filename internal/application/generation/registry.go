// Package generation 提供供应商注册表、任务路由与容错生成门面
package generation

import (
	"fmt"
	"sync"

	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/infrastructure/llm"
)

// Registry 供应商注册表，按注册顺序保存适配器
type Registry struct {
	mu        sync.RWMutex
	order     []entity.VendorName
	providers map[entity.VendorName]llm.Provider
}

// NewRegistry 创建注册表并按顺序注册适配器
func NewRegistry(providers ...llm.Provider) (*Registry, error) {
	r := &Registry{providers: make(map[entity.VendorName]llm.Provider, len(providers))}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register 注册适配器，同名供应商只能注册一次
func (r *Registry) Register(p llm.Provider) error {
	if p == nil {
		return fmt.Errorf("provider is nil")
	}
	name := p.Vendor().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; ok {
		return fmt.Errorf("vendor %s already registered", name)
	}
	r.order = append(r.order, name)
	r.providers[name] = p
	return nil
}

// Get 按名称查找适配器
func (r *Registry) Get(name entity.VendorName) (llm.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Providers 按注册顺序返回全部适配器
func (r *Registry) Providers() []llm.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

// Available 按注册顺序返回已配置凭证的适配器
func (r *Registry) Available() []llm.Provider {
	all := r.Providers()
	out := make([]llm.Provider, 0, len(all))
	for _, p := range all {
		if p.IsConfigured() {
			out = append(out, p)
		}
	}
	return out
}

// AvailableVendors 已配置的供应商名称，顺序即注册顺序
func (r *Registry) AvailableVendors() []entity.VendorName {
	available := r.Available()
	out := make([]entity.VendorName, 0, len(available))
	for _, p := range available {
		out = append(out, p.Vendor().Name)
	}
	return out
}

// Vendors 返回全部供应商的状态快照
func (r *Registry) Vendors() []entity.Vendor {
	all := r.Providers()
	out := make([]entity.Vendor, 0, len(all))
	for _, p := range all {
		out = append(out, p.Vendor())
	}
	return out
}
