package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"z-book-agent/internal/domain/entity"
	"z-book-agent/internal/interfaces/http/dto"
)

// OutlineSynthesizer 素材合成服务
type OutlineSynthesizer interface {
	Synthesize(ctx context.Context, items []entity.InputItem) *entity.SynthesisOutline
}

// SynthesisHandler 素材合成处理器
type SynthesisHandler struct {
	synth OutlineSynthesizer
}

// NewSynthesisHandler 创建素材合成处理器
func NewSynthesisHandler(synth OutlineSynthesizer) *SynthesisHandler {
	return &SynthesisHandler{synth: synth}
}

// Synthesize 将素材合成为大纲，模型失败时返回启发式大纲而不是错误
// @Summary 素材合成
// @Tags Synthesis
// @Accept json
// @Produce json
// @Param body body dto.SynthesisRequest true "素材"
// @Success 200 {object} dto.Response[entity.SynthesisOutline]
// @Router /v1/synthesis [post]
func (h *SynthesisHandler) Synthesize(c *gin.Context) {
	var req dto.SynthesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	dto.Success(c, h.synth.Synthesize(c.Request.Context(), req.Items))
}
