package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coach-center/internal/service"
)

// CalendarHandler 课次日历订阅
type CalendarHandler struct {
	calendarSvc service.CalendarService
	logger      *zap.Logger
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc, logger: logger}
}

// BatchCalendar 班级课次 iCalendar
// GET /api/v1/batches/:id/sessions.ics
func (h *CalendarHandler) BatchCalendar(c *gin.Context) {
	batchID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	content, filename, err := h.calendarSvc.BatchCalendar(c.Request.Context(), batchID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", content)
}
