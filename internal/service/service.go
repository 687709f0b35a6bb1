package service

import (
	"go.uber.org/zap"

	"coach-center/config"
	"coach-center/internal/repository"
	"coach-center/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Venue       VenueService
	Batch       BatchService
	Session     SessionService
	Person      PersonService
	Attendance  AttendanceService
	ActivityLog ActivityLogService
	Calendar    CalendarService
	Export      ExportService
}

// NewService 创建 Service 聚合；cache 可为 nil
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache *redis.Client,
	clock Clock,
	logger *zap.Logger,
) *Service {
	activity := NewActivityLogService(repo, logger)
	calendar := NewCalendarService(repo, cache, cfg.App.Location(), logger)

	return &Service{
		Venue:       NewVenueService(repo, activity, logger),
		Batch:       NewBatchService(&cfg.App, repo, activity, calendar, logger),
		Session:     NewSessionService(repo, activity, calendar, logger),
		Person:      NewPersonService(repo, activity, logger),
		Attendance:  NewAttendanceService(&cfg.App, repo, clock, activity, logger),
		ActivityLog: activity,
		Calendar:    calendar,
		Export:      NewExportService(repo, clock, logger),
	}
}
