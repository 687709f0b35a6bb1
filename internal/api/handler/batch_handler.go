package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coach-center/internal/dto"
	"coach-center/internal/service"
	"coach-center/pkg/response"
)

// BatchHandler 班级模块 HTTP 处理器
type BatchHandler struct {
	batchSvc   service.BatchService
	sessionSvc service.SessionService
	personSvc  service.PersonService
	logger     *zap.Logger
}

// NewBatchHandler 创建 BatchHandler
func NewBatchHandler(batchSvc service.BatchService, sessionSvc service.SessionService, personSvc service.PersonService, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{batchSvc: batchSvc, sessionSvc: sessionSvc, personSvc: personSvc, logger: logger}
}

// ListBatches 班级列表（含 active 学员与教练）
// GET /api/v1/batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
	var req dto.BatchListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	batches, total, err := h.batchSvc.List(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OKPage(c, batches, total, req.GetPage(), req.GetPageSize())
}

// GetBatch 班级详情（含课次）
// GET /api/v1/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.batchSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, batch)
}

// CreateBatch 创建班级并生成课次
// POST /api/v1/batches
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	batch, err := h.batchSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.Created(c, batch)
}

// UpdateBatch 部分更新班级；排课字段变化时重建课次
// PUT /api/v1/batches/:id
func (h *BatchHandler) UpdateBatch(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	batch, err := h.batchSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, batch)
}

// DeleteBatch 删除班级
// DELETE /api/v1/batches/:id
func (h *BatchHandler) DeleteBatch(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.batchSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, nil)
}

// RegenerateSessions 按当前配置重建全部课次
// POST /api/v1/batches/:id/regenerate-sessions
func (h *BatchHandler) RegenerateSessions(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	batch, err := h.batchSvc.RegenerateSessions(c.Request.Context(), id, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, batch)
}

// ListSessions 班级课次列表
// GET /api/v1/batches/:id/sessions
func (h *BatchHandler) ListSessions(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	sessions, err := h.sessionSvc.ListByBatch(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"list": sessions})
}

// GetRoster 班级名单
// GET /api/v1/batches/:id/roster?type=member|partner
func (h *BatchHandler) GetRoster(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}
	pt, ok := MustGetPersonType(c)
	if !ok {
		return
	}

	roster, err := h.personSvc.GetRoster(c.Request.Context(), id, pt)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"list": roster})
}

// ReplaceRoster 整体替换班级名单
// PUT /api/v1/batches/:id/roster?type=member|partner
func (h *BatchHandler) ReplaceRoster(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}
	pt, ok := MustGetPersonType(c)
	if !ok {
		return
	}

	var req dto.UpdateRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	roster, err := h.personSvc.ReplaceRoster(c.Request.Context(), id, pt, req.PersonIDs, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"list": roster})
}
