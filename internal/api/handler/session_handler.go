package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coach-center/internal/dto"
	"coach-center/internal/service"
	"coach-center/pkg/response"
)

// SessionHandler 课次模块 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
	logger     *zap.Logger
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, logger: logger}
}

// GetSession 课次详情
// GET /api/v1/batch-sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, session)
}

// Reschedule 课次改期（同班同日时间重叠时拒绝）
// POST /api/v1/batch-sessions/:id/reschedule
func (h *SessionHandler) Reschedule(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.RescheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Reschedule(c.Request.Context(), id, &req, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, session)
}

// UpdateStatus 变更课次状态
// PATCH /api/v1/batch-sessions/:id/status
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.UpdateStatus(c.Request.Context(), id, &req, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, session)
}
