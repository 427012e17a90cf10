package node

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// StripCodeFences 去掉模型输出外层的 markdown 代码块标记
func StripCodeFences(s string) string {
	raw := strings.TrimSpace(s)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	// 去掉语言标记所在的首行
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		first := strings.TrimSpace(raw[:i])
		if first == "" || !strings.ContainsAny(first, "{[") {
			raw = raw[i+1:]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// ExtractJSONObject 尝试从模型输出中截取“第一个完整 JSON 对象/数组”。
// 这是一个容错逻辑：模型可能会在 JSON 前后夹杂多余文本。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return raw
	}

	// 如果模型输出夹杂了其它文本，尽量截取第一个 JSON 值（对象/数组）。
	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")
	start := -1
	end := -1
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		start = objStart
		end = strings.LastIndex(raw, "}")
	case arrStart >= 0:
		start = arrStart
		end = strings.LastIndex(raw, "]")
	}
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	// 简单校验：确保至少能被 Decoder 消费到一个 JSON 起始。
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err == nil {
		if d, ok := tok.(json.Delim); ok && (d == '{' || d == '[') {
			return raw
		}
	}

	// 最后兜底：尝试读取到 EOF 为止，避免调用方误用。
	dec = json.NewDecoder(strings.NewReader(raw))
	for {
		_, e := dec.Token()
		if e != nil {
			if errors.Is(e, io.EOF) {
				break
			}
			return strings.TrimSpace(s)
		}
	}
	return raw
}

// TryParseJSON 去掉代码块后解析，失败时再截取首个 JSON 值重试
func TryParseJSON[T any](raw string) (T, bool) {
	cleaned := StripCodeFences(raw)
	var out T
	if cleaned == "" {
		return out, false
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return out, true
	}
	extracted := ExtractJSONObject(cleaned)
	if extracted == cleaned {
		return out, false
	}
	var retry T
	if err := json.Unmarshal([]byte(extracted), &retry); err != nil {
		return out, false
	}
	return retry, true
}

// ParseOrFallback 所有结构化输出统一使用的容错解析，失败时返回 fallback
func ParseOrFallback[T any](raw string, fallback T) T {
	if v, ok := TryParseJSON[T](raw); ok {
		return v
	}
	return fallback
}
