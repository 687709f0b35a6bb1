package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coach-center/internal/dto"
	"coach-center/internal/service"
	"coach-center/pkg/response"
)

// ActivityLogHandler 操作日志 HTTP 处理器
type ActivityLogHandler struct {
	activitySvc service.ActivityLogService
	logger      *zap.Logger
}

// NewActivityLogHandler 创建 ActivityLogHandler
func NewActivityLogHandler(activitySvc service.ActivityLogService, logger *zap.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{activitySvc: activitySvc, logger: logger}
}

// ListActivityLogs 操作日志（按时间倒序分页）
// GET /api/v1/activity-logs
func (h *ActivityLogHandler) ListActivityLogs(c *gin.Context) {
	var req dto.ActivityLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	logs, total, err := h.activitySvc.List(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}
