// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"
	CodeCanceled           ErrorCode = "1009"

	// 生成与编排错误 (4xxx)
	CodePlanningFailed     ErrorCode = "4002"
	CodeWorkflowAborted    ErrorCode = "4003"
	CodeEmbeddingFailed    ErrorCode = "4006"
	CodeImageFailed        ErrorCode = "4007"
	CodeNoVendorConfigured ErrorCode = "4008"
	CodeVendorsExhausted   ErrorCode = "4009"
	CodeUnsupported        ErrorCode = "4010"

	// 外部服务错误 (5xxx)
	CodeStreamError      ErrorCode = "5003"
	CodeLLMProviderError ErrorCode = "5005"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码匹配，预定义错误包装后仍可通过 errors.Is 识别
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail 返回附带详细信息的副本
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 返回附带底层错误的副本
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeUnsupported:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable, CodeNoVendorConfigured:
		return http.StatusServiceUnavailable
	case CodeVendorsExhausted, CodeLLMProviderError, CodeImageFailed:
		return http.StatusBadGateway
	case CodeCanceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrTooManyRequests    = New(CodeTooManyRequests, "rate limit exceeded")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")
	ErrCanceled           = New(CodeCanceled, "request canceled")

	ErrPlanningFailed     = New(CodePlanningFailed, "planning failed")
	ErrWorkflowAborted    = New(CodeWorkflowAborted, "workflow aborted")
	ErrImageFailed        = New(CodeImageFailed, "image generation failed")
	ErrStreamFailed       = New(CodeStreamError, "run stream unavailable")
	ErrNoVendorConfigured = New(CodeNoVendorConfigured, "no AI vendor is configured")
	ErrVendorsExhausted   = New(CodeVendorsExhausted, "all AI vendors failed")
	ErrUnsupported        = New(CodeUnsupported, "operation not supported by any configured vendor")
)

// IsAppError 检查错误链中是否存在 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
