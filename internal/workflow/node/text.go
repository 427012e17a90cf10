package node

import "strings"

// TruncateByRunes 按字符数截断，不会切开多字节字符
func TruncateByRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// Headline 取首个非空行作为标题，超长时截断
func Headline(s string, maxRunes int) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return TruncateByRunes(line, maxRunes)
		}
	}
	return ""
}

// OrNone 空值在提示词中显示为 (none)
func OrNone(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "(none)"
	}
	return s
}
