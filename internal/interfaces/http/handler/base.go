package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"z-book-agent/internal/application/generation"
	"z-book-agent/internal/interfaces/http/dto"
	apperrors "z-book-agent/pkg/errors"
	"z-book-agent/pkg/logger"
)

// respondError 按 AppError 的状态码输出错误，所有供应商失败时附带逐个供应商的原因
func respondError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	detail := &dto.ErrorDetail{
		ErrorCode: string(appErr.Code),
		Details:   appErr.Detail,
	}
	var exhausted *generation.ExhaustedError
	if errors.As(err, &exhausted) {
		detail.Details = exhausted.Error()
		detail.Failures = exhausted.Failures
	}

	ctx := c.Request.Context()
	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", err, "path", c.FullPath())
	} else {
		logger.Warn(ctx, "request rejected", "path", c.FullPath(), "error", err.Error())
	}
	dto.Fail(c, status, appErr.Message, detail)
}

// errorEvent SSE 错误事件载荷
func errorEvent(err error) gin.H {
	appErr := apperrors.AsAppError(err)
	return gin.H{
		"code":    appErr.Code,
		"message": err.Error(),
	}
}
