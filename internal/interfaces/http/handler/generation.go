package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"z-book-agent/internal/application/generation"
	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/interfaces/http/dto"
)

// GenerationService 容错生成门面
type GenerationService interface {
	Generate(ctx context.Context, req generation.GenerateRequest) (*entity.GenerationResult, error)
	GenerateImage(ctx context.Context, prompt string, preferred entity.VendorName) (*entity.GenerationResult, error)
	Embed(ctx context.Context, texts []string) ([][]float64, entity.VendorName, error)
	Probe(ctx context.Context) []entity.Vendor
	Vendors() []entity.Vendor
	AvailableVendors() []entity.VendorName
}

// GenerationHandler 单次生成、图片、向量与供应商查询
type GenerationHandler struct {
	svc GenerationService
}

// NewGenerationHandler 创建生成处理器
func NewGenerationHandler(svc GenerationService) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

// Generate 单次生成
// @Summary 单次生成
// @Description 按任务类别路由到供应商，失败时依次回退
// @Tags Generation
// @Accept json
// @Produce json
// @Param body body dto.GenerateRequest true "生成请求"
// @Success 200 {object} dto.Response[entity.GenerationResult]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/generate [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	genReq, err := req.ToGenerateRequest()
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Generate(c.Request.Context(), genReq)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, result)
}

// GenerateImage 图片生成
// @Summary 图片生成
// @Tags Generation
// @Accept json
// @Produce json
// @Param body body dto.ImageRequest true "图片请求"
// @Success 200 {object} dto.Response[dto.ImageResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/images [post]
func (h *GenerationHandler) GenerateImage(c *gin.Context) {
	var req dto.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	vendor, err := dto.ParseOptionalVendor(req.Vendor)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.GenerateImage(c.Request.Context(), req.Prompt, vendor)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToImageResponse(result))
}

// Embed 向量生成
// @Summary 向量生成
// @Tags Generation
// @Accept json
// @Produce json
// @Param body body dto.EmbedRequest true "向量请求"
// @Success 200 {object} dto.Response[dto.EmbedResponse]
// @Router /v1/embeddings [post]
func (h *GenerationHandler) Embed(c *gin.Context) {
	var req dto.EmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	vecs, vendor, err := h.svc.Embed(c.Request.Context(), req.Texts)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.EmbedResponse{Vendor: vendor, Embeddings: vecs})
}

// ListVendors 供应商状态
// @Summary 供应商状态
// @Description probe=true 时先对全部供应商探活
// @Tags Vendors
// @Produce json
// @Param probe query bool false "是否探活"
// @Success 200 {object} dto.Response[dto.VendorListResponse]
// @Router /v1/vendors [get]
func (h *GenerationHandler) ListVendors(c *gin.Context) {
	var vendors []entity.Vendor
	if probe, _ := strconv.ParseBool(c.Query("probe")); probe {
		vendors = h.svc.Probe(c.Request.Context())
	} else {
		vendors = h.svc.Vendors()
	}
	dto.Success(c, dto.VendorListResponse{
		Vendors:   vendors,
		Available: h.svc.AvailableVendors(),
	})
}
