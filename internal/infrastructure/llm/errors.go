package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"z-book-agent/internal/domain/entity"
)

// VendorError 供应商调用失败，携带原始错误体
type VendorError struct {
	Vendor     entity.VendorName
	StatusCode int
	Body       string
	Err        error
}

func (e *VendorError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Vendor))
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	switch {
	case e.Body != "":
		b.WriteString(": ")
		b.WriteString(e.Body)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *VendorError) Unwrap() error {
	return e.Err
}

// ErrEmptyResponse 调用成功但没有任何文本输出
var ErrEmptyResponse = errors.New("empty response")

var statusPattern = regexp.MustCompile(`status(?: code)?[:= ]+(\d{3})`)

// wrapError 将底层 SDK 错误转换为 VendorError，尽量从消息中解析状态码
func wrapError(vendor entity.VendorName, err error) error {
	if err == nil {
		return nil
	}
	var ve *VendorError
	if errors.As(err, &ve) {
		return err
	}
	out := &VendorError{Vendor: vendor, Body: err.Error(), Err: err}
	if m := statusPattern.FindStringSubmatch(strings.ToLower(err.Error())); m != nil {
		out.StatusCode, _ = strconv.Atoi(m[1])
	}
	return out
}

var rateLimitMarkers = []string{
	"rate limit",
	"rate_limit",
	"ratelimit",
	"too many requests",
	"overloaded",
	"resource_exhausted",
	"resource exhausted",
	"quota",
	"capacity",
	"status 429",
	"status 503",
	"status 529",
}

// IsRateLimited 根据状态码或错误消息判断是否为限流或过载
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var ve *VendorError
	if errors.As(err, &ve) {
		switch ve.StatusCode {
		case 429, 503, 529:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsResponseFormatUnsupported 判断供应商是否拒绝了 response_format 参数
func IsResponseFormatUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "response_format"):
		return true
	case strings.Contains(msg, "json_object") && strings.Contains(msg, "not supported"):
		return true
	case strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "invalid") && strings.Contains(msg, "response"):
		return true
	default:
		return false
	}
}
