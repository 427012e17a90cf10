// Package callback 为 eino 组件调用挂载全局指标与追踪
package callback

import (
	"sync"

	einocb "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

var once sync.Once

// Init 注册全局回调，重复调用无副作用
func Init() {
	once.Do(func() {
		einocb.AppendGlobalHandlers(
			cbtemplate.NewHandlerHelper().
				ChatModel(newChatModelHandler()).
				Embedding(newEmbeddingHandler()).
				Handler(),
		)
	})
}
