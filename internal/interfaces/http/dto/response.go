// Package dto 定义 HTTP 接口的请求与响应结构
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 成功响应信封
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorDetail 业务错误码与补充信息
type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Details   string `json:"details,omitempty"`
	// Failures 所有供应商均失败时，每个供应商最后一次失败的原因
	Failures any `json:"failures,omitempty"`
}

// ErrorResponse 失败响应信封
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

// Success 200 响应
func Success[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, Response[T]{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
		TraceID: c.GetString("trace_id"),
	})
}

// Fail 以 status 输出失败信封，detail 可为 nil
func Fail(c *gin.Context, status int, message string, detail *ErrorDetail) {
	c.JSON(status, ErrorResponse{
		Code:    status,
		Message: message,
		Error:   detail,
		TraceID: c.GetString("trace_id"),
	})
}

// BadRequest 400 响应
func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, message, nil)
}

// NotFound 404 响应
func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, message, nil)
}

// InternalError 500 响应
func InternalError(c *gin.Context, message string) {
	Fail(c, http.StatusInternalServerError, message, nil)
}

// ServiceUnavailable 503 响应
func ServiceUnavailable(c *gin.Context, message string) {
	Fail(c, http.StatusServiceUnavailable, message, nil)
}
