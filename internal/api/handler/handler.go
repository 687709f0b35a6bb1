package handler

import (
	"go.uber.org/zap"

	"coach-center/internal/model"
	"coach-center/internal/service"
)

// Handler 所有 HTTP Handler 的聚合
type Handler struct {
	Venue       *VenueHandler
	Batch       *BatchHandler
	Session     *SessionHandler
	Member      *PersonHandler
	Partner     *PersonHandler
	Attendance  *AttendanceHandler
	ActivityLog *ActivityLogHandler
	Calendar    *CalendarHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Venue:       NewVenueHandler(svc.Venue, logger),
		Batch:       NewBatchHandler(svc.Batch, svc.Session, svc.Person, logger),
		Session:     NewSessionHandler(svc.Session, logger),
		Member:      NewPersonHandler(svc.Person, model.PersonTypeMember, logger),
		Partner:     NewPersonHandler(svc.Person, model.PersonTypePartner, logger),
		Attendance:  NewAttendanceHandler(svc.Attendance, logger),
		ActivityLog: NewActivityLogHandler(svc.ActivityLog, logger),
		Calendar:    NewCalendarHandler(svc.Calendar, logger),
		Export:      NewExportHandler(svc.Export, logger),
	}
}
