package agent

import "z-book-agent/internal/domain/entity"

// LogFunc 接收工作流事件的回调，按发生顺序调用
type LogFunc func(entity.AgentLogEntry)

// MultiLog 将事件依次分发给多个回调，nil 回调被忽略
func MultiLog(fns ...LogFunc) LogFunc {
	live := make([]LogFunc, 0, len(fns))
	for _, fn := range fns {
		if fn != nil {
			live = append(live, fn)
		}
	}
	return func(e entity.AgentLogEntry) {
		for _, fn := range live {
			fn(e)
		}
	}
}
