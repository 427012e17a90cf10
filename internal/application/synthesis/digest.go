package synthesis

import (
	"crypto/sha256"

	"z-book-agent/internal/domain/entity"
)

// Digest 素材列表的内容摘要，用于缓存与合并并发请求
func Digest(items []entity.InputItem) []byte {
	h := sha256.New()
	for _, item := range items {
		for _, field := range [][]byte{
			[]byte(item.Type),
			[]byte(item.Name),
			[]byte(item.MimeType),
			[]byte(item.Content),
			item.Data,
		} {
			h.Write(field)
			h.Write([]byte{0})
		}
	}
	return h.Sum(nil)
}
