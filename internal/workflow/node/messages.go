package node

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// SplitMessages 将模板渲染出的消息拆为系统指令与用户文本
func SplitMessages(msgs []*schema.Message) (system string, user string) {
	var sys, usr []string
	for _, m := range msgs {
		if m == nil {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if m.Role == schema.System {
			sys = append(sys, content)
		} else {
			usr = append(usr, content)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(usr, "\n\n")
}
