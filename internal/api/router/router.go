package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coach-center/config"
	"coach-center/internal/api/handler"
	"coach-center/internal/api/middleware"
	"coach-center/internal/model"
	"coach-center/pkg/jwt"
	"coach-center/pkg/metrics"
	"coach-center/pkg/redis"
)

const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// db / rdb 可为 nil（测试或降级运行），健康检查随之跳过对应依赖
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := handler.RegisterBindingValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())

	// ── 运维接口 ──
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", healthz(db, rdb))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.BodyLimit(maxBodyBytes))
	v1.Use(middleware.JWTAuth(jwtMgr))
	v1.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	{
		// 场地
		venues := v1.Group("/venues")
		{
			venues.GET("", h.Venue.ListVenues)
			venues.GET("/:id", h.Venue.GetVenue)
			venues.POST("", h.Venue.CreateVenue)
			venues.PUT("/:id", h.Venue.UpdateVenue)
			venues.DELETE("/:id", h.Venue.DeleteVenue)
		}

		// 班级
		batches := v1.Group("/batches")
		{
			batches.GET("", h.Batch.ListBatches)
			batches.POST("", h.Batch.CreateBatch)
			batches.GET("/:id", h.Batch.GetBatch)
			batches.PUT("/:id", h.Batch.UpdateBatch)
			batches.DELETE("/:id", h.Batch.DeleteBatch)
			batches.POST("/:id/regenerate-sessions", h.Batch.RegenerateSessions)
			batches.GET("/:id/roster", h.Batch.GetRoster)
			batches.PUT("/:id/roster", h.Batch.ReplaceRoster)
			batches.GET("/:id/sessions", h.Batch.ListSessions)
			batches.GET("/:id/sessions.ics", h.Calendar.BatchCalendar)
			batches.GET("/:id/attendance", h.Attendance.ListAttendance)
			batches.GET("/:id/attendance/by-date", h.Attendance.ListAttendanceByDate)
			batches.GET("/:id/attendance/export", h.Export.ExportAttendance)
		}

		// 课次
		sessions := v1.Group("/batch-sessions")
		{
			sessions.GET("/:id", h.Session.GetSession)
			sessions.POST("/:id/reschedule", h.Session.Reschedule)
			sessions.PATCH("/:id/status", h.Session.UpdateStatus)
		}

		// 考勤
		v1.POST("/attendance", h.Attendance.MarkAttendance)

		// 学员
		members := v1.Group("/members")
		{
			members.GET("", h.Member.ListPersons)
			members.GET("/:id", h.Member.GetPerson)
			members.POST("", h.Member.CreatePerson)
			members.PUT("/:id", h.Member.UpdatePerson)
			members.DELETE("/:id", h.Member.DeletePerson)
			members.GET("/:id/attendance/recent", h.Attendance.RecentAttendance(model.PersonTypeMember))
		}

		// 教练
		partners := v1.Group("/partners")
		{
			partners.GET("", h.Partner.ListPersons)
			partners.GET("/:id", h.Partner.GetPerson)
			partners.POST("", h.Partner.CreatePerson)
			partners.PUT("/:id", h.Partner.UpdatePerson)
			partners.DELETE("/:id", h.Partner.DeletePerson)
			partners.GET("/:id/attendance/recent", h.Attendance.RecentAttendance(model.PersonTypePartner))
		}

		// 操作日志
		v1.GET("/activity-logs", h.ActivityLog.ListActivityLogs)
	}

	return r, nil
}

func healthz(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok"}
		code := http.StatusOK

		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
				code = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx); err != nil {
				status["redis"] = "unreachable"
			}
		}

		c.JSON(code, status)
	}
}
