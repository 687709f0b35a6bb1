package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coach-center/internal/dto"
	"coach-center/internal/model"
	"coach-center/internal/service"
	"coach-center/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
	logger        *zap.Logger
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc, logger: logger}
}

// ListAttendance 班级全部考勤（过去与当天的缺失记录补建为 not marked）
// GET /api/v1/batches/:id/attendance?type=member|partner
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	batchID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var q dto.AttendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	items, err := h.attendanceSvc.GetAll(c.Request.Context(), batchID, model.PersonType(q.Type))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, items)
}

// ListAttendanceByDate 单日考勤
// GET /api/v1/batches/:id/attendance/by-date?type=&date=
func (h *AttendanceHandler) ListAttendanceByDate(c *gin.Context) {
	batchID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var q dto.AttendanceByDateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	items, err := h.attendanceSvc.GetByDate(c.Request.Context(), batchID, model.PersonType(q.Type), q.Date)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, items)
}

// MarkAttendance 标记考勤
// POST /api/v1/attendance
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	item, err := h.attendanceSvc.Mark(c.Request.Context(), &req, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, item)
}

// RecentAttendance 人员近期考勤
// GET /api/v1/partners/:id/attendance/recent
func (h *AttendanceHandler) RecentAttendance(pt model.PersonType) gin.HandlerFunc {
	return func(c *gin.Context) {
		personID, ok := MustGetIDParam(c, "id")
		if !ok {
			return
		}

		items, err := h.attendanceSvc.Recent(c.Request.Context(), pt, personID)
		if err != nil {
			respondServiceError(c, h.logger, err)
			return
		}

		response.OK(c, items)
	}
}
