// Package prompt 管理内嵌的提示词模板
package prompt

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// PromptID 模板标识，对应 templates/<id>.system.txt 与 templates/<id>.user.txt
type PromptID string

const (
	PromptPlannerV1     PromptID = "planner_v1"
	PromptStyleGuideV1  PromptID = "style_guide_v1"
	PromptWriterV1      PromptID = "writer_v1"
	PromptCritiqueV1    PromptID = "critique_v1"
	PromptConsistencyV1 PromptID = "consistency_v1"
	PromptSynthesisV1   PromptID = "synthesis_v1"
)

// AllPrompts 全部已知模板
func AllPrompts() []PromptID {
	return []PromptID{
		PromptPlannerV1,
		PromptStyleGuideV1,
		PromptWriterV1,
		PromptCritiqueV1,
		PromptConsistencyV1,
		PromptSynthesisV1,
	}
}

// Registry 按需加载并缓存 FString 聊天模板
type Registry struct {
	mu        sync.Mutex
	templates map[PromptID]einoprompt.ChatTemplate
}

// NewRegistry 创建模板注册表
func NewRegistry() *Registry {
	return &Registry{templates: make(map[PromptID]einoprompt.ChatTemplate, len(AllPrompts()))}
}

// ChatTemplate 返回 system + user 两条消息组成的模板
func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tpl, ok := r.templates[id]; ok {
		return tpl, nil
	}
	system, err := load(id, "system")
	if err != nil {
		return nil, err
	}
	user, err := load(id, "user")
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.templates[id] = tpl
	return tpl, nil
}

func load(id PromptID, role string) (string, error) {
	name := path.Join("templates", fmt.Sprintf("%s.%s.txt", id, role))
	b, err := templatesFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("prompt %s: missing %s template: %w", id, role, err)
	}
	return strings.TrimSpace(string(b)), nil
}
