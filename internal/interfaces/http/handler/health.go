// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"z-book-agent/internal/domain/entity"
)

// HealthChecker 可探活的依赖
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// VendorLister 提供已配置供应商列表
type VendorLister interface {
	AvailableVendors() []entity.VendorName
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	vendors VendorLister
	redis   HealthChecker
	version string
}

// NewHealthHandler 创建健康检查处理器，redis 未启用时传 nil
func NewHealthHandler(vendors VendorLister, redis HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		vendors: vendors,
		redis:   redis,
		version: version,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口
// 至少一个供应商已配置才视为就绪；Redis 启用时必须可达
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"vendors": {Status: "unknown"},
		"redis":   {Status: "disabled"},
	}
	ready := true

	if h.vendors == nil || len(h.vendors.AvailableVendors()) == 0 {
		checks["vendors"].Status = "missing"
		checks["vendors"].Error = "no AI vendor is configured"
		ready = false
	} else {
		checks["vendors"].Status = "ok"
	}

	if h.redis != nil {
		start := time.Now()
		err := h.redis.HealthCheck(ctx)
		checks["redis"].LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			checks["redis"].Status = "error"
			checks["redis"].Error = err.Error()
			ready = false
		} else {
			checks["redis"].Status = "ok"
		}
	}

	resp := readinessResponse{
		Status: "ok",
		Checks: checks,
	}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
