package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coach-center/internal/dto"
	"coach-center/internal/service"
	"coach-center/pkg/response"
)

// VenueHandler 场地模块 HTTP 处理器
type VenueHandler struct {
	venueSvc service.VenueService
	logger   *zap.Logger
}

// NewVenueHandler 创建 VenueHandler
func NewVenueHandler(venueSvc service.VenueService, logger *zap.Logger) *VenueHandler {
	return &VenueHandler{venueSvc: venueSvc, logger: logger}
}

// ListVenues 获取场地列表
// GET /api/v1/venues
func (h *VenueHandler) ListVenues(c *gin.Context) {
	var req dto.VenueListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	venues, err := h.venueSvc.List(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"list": venues})
}

// GetVenue 获取场地详情
// GET /api/v1/venues/:id
func (h *VenueHandler) GetVenue(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	venue, err := h.venueSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, venue)
}

// CreateVenue 创建场地
// POST /api/v1/venues
func (h *VenueHandler) CreateVenue(c *gin.Context) {
	var req dto.CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	venue, err := h.venueSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.Created(c, venue)
}

// UpdateVenue 更新场地
// PUT /api/v1/venues/:id
func (h *VenueHandler) UpdateVenue(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	venue, err := h.venueSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, venue)
}

// DeleteVenue 删除场地
// DELETE /api/v1/venues/:id
func (h *VenueHandler) DeleteVenue(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.venueSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, nil)
}
