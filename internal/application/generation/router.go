package generation

import (
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/infrastructure/llm"
)

// DefaultPreferences 各任务类别的内置供应商偏好顺序
func DefaultPreferences() map[entity.TaskCategory][]entity.VendorName {
	return map[entity.TaskCategory][]entity.VendorName{
		entity.TaskPlanning: {
			entity.VendorGemini, entity.VendorOpenAI, entity.VendorDeepSeek, entity.VendorMistral, entity.VendorDoubao,
		},
		entity.TaskWriting: {
			entity.VendorMistral, entity.VendorDeepSeek, entity.VendorGemini, entity.VendorOpenAI, entity.VendorDoubao,
		},
		entity.TaskEditing: {
			entity.VendorOpenAI, entity.VendorMistral, entity.VendorGemini, entity.VendorDeepSeek,
		},
		entity.TaskCritique: {
			entity.VendorDeepSeek, entity.VendorOpenAI, entity.VendorGemini, entity.VendorMistral,
		},
		entity.TaskSynthesis: {
			entity.VendorGemini, entity.VendorOpenAI, entity.VendorDeepSeek,
		},
		entity.TaskImageGeneration: {
			entity.VendorOpenAI,
		},
		entity.TaskQuickResponse: {
			entity.VendorDoubao, entity.VendorMistral, entity.VendorGemini, entity.VendorDeepSeek, entity.VendorOpenAI,
		},
	}
}

// Router 根据任务类别选择供应商
type Router struct {
	preferences map[entity.TaskCategory][]entity.VendorName
}

// NewRouter 创建路由器，overrides 中的类别覆盖内置表，未知供应商名被忽略
func NewRouter(overrides map[string][]string) *Router {
	prefs := DefaultPreferences()
	for key, names := range overrides {
		category, err := entity.ParseTaskCategory(key)
		if err != nil {
			continue
		}
		list := make([]entity.VendorName, 0, len(names))
		for _, n := range names {
			if v, err := entity.ParseVendorName(n); err == nil {
				list = append(list, v)
			}
		}
		prefs[category] = list
	}
	return &Router{preferences: prefs}
}

// Preferences 返回类别的偏好顺序副本
func (r *Router) Preferences(category entity.TaskCategory) []entity.VendorName {
	return append([]entity.VendorName(nil), r.preferences[category]...)
}

// SelectVendor 先按偏好顺序查找同时可用且有可用模型的供应商，
// 找不到时按 available 的顺序回退；available 为空时返回 false
func (r *Router) SelectVendor(category entity.TaskCategory, available []llm.Provider) (*entity.ModelDescriptor, bool) {
	byName := make(map[entity.VendorName]llm.Provider, len(available))
	for _, p := range available {
		byName[p.Vendor().Name] = p
	}
	for _, name := range r.preferences[category] {
		p, ok := byName[name]
		if !ok {
			continue
		}
		if m, ok := firstAvailableModel(p); ok {
			return m, true
		}
	}
	for _, p := range available {
		if m, ok := firstAvailableModel(p); ok {
			return m, true
		}
	}
	return nil, false
}

// TryOrder 生成门面的尝试顺序：
// 可用的指定供应商优先，否则为路由选择结果；其后依次是偏好表中剩余的可用供应商与注册顺序中的其余供应商
func (r *Router) TryOrder(category entity.TaskCategory, available []llm.Provider, override entity.VendorName) []llm.Provider {
	byName := make(map[entity.VendorName]llm.Provider, len(available))
	for _, p := range available {
		byName[p.Vendor().Name] = p
	}

	out := make([]llm.Provider, 0, len(available))
	seen := make(map[entity.VendorName]bool, len(available))
	add := func(name entity.VendorName) {
		if p, ok := byName[name]; ok && !seen[name] {
			seen[name] = true
			out = append(out, p)
		}
	}

	if _, ok := byName[override]; ok && override != "" {
		add(override)
	} else if m, ok := r.SelectVendor(category, available); ok {
		add(m.Vendor)
	}
	for _, name := range r.preferences[category] {
		add(name)
	}
	for _, p := range available {
		add(p.Vendor().Name)
	}
	return out
}

func firstAvailableModel(p llm.Provider) (*entity.ModelDescriptor, bool) {
	for _, m := range p.Models() {
		if m.Available {
			m := m
			return &m, true
		}
	}
	return nil, false
}
