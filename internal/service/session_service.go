package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coach-center/internal/dto"
	"coach-center/internal/model"
	"coach-center/internal/repository"
	"coach-center/pkg/metrics"
)

// ── 课次模块业务错误 ──

var (
	ErrSessionConflict = errors.New("课次时间冲突")
)

// SessionService 课次业务接口
type SessionService interface {
	ListByBatch(ctx context.Context, batchID string) ([]dto.SessionResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SessionResponse, error)
	// Reschedule 改期；与同班同日其他课次时间重叠时返回 ErrSessionConflict
	Reschedule(ctx context.Context, id string, req *dto.RescheduleSessionRequest, callerID string) (*dto.SessionResponse, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateSessionStatusRequest, callerID string) (*dto.SessionResponse, error)
}

type sessionService struct {
	repo     *repository.Repository
	recorder ActivityRecorder
	calendar CalendarInvalidator
	logger   *zap.Logger
}

// NewSessionService 创建 SessionService 实例；calendar 可为 nil
func NewSessionService(repo *repository.Repository, recorder ActivityRecorder, calendar CalendarInvalidator, logger *zap.Logger) SessionService {
	return &sessionService{
		repo:     repo,
		recorder: recorder,
		calendar: calendar,
		logger:   logger,
	}
}

func (s *sessionService) ListByBatch(ctx context.Context, batchID string) ([]dto.SessionResponse, error) {
	if _, err := s.repo.Batch.GetByID(ctx, batchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	sessions, err := s.repo.Session.ListByBatch(ctx, batchID)
	if err != nil {
		s.logger.Error("查询课次失败", zap.String("batch_id", batchID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, toSessionResponse(&sessions[i]))
	}
	return result, nil
}

func (s *sessionService) GetByID(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.getSession(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(session)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Reschedule — 同班同日半开区间重叠检测
// ════════════════════════════════════════════════════════════

func (s *sessionService) Reschedule(ctx context.Context, id string, req *dto.RescheduleSessionRequest, callerID string) (*dto.SessionResponse, error) {
	errs := fieldErrors{}

	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		errs.add("notes", "改期必须填写备注")
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		errs.add("date", "日期格式应为 YYYY-MM-DD")
	}
	start := normalizeClockField(errs, "start_time", req.StartTime)
	end := normalizeClockField(errs, "end_time", req.EndTime)
	if start != "" && end != "" && end <= start {
		errs.add("end_time", "结束时间必须晚于开始时间")
	}
	if req.Status != "" && !model.IsValidSessionStatus(req.Status) {
		errs.add("status", "课次状态无效")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	var session *model.BatchSession
	var oldValues map[string]interface{}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		session, err = s.getSession(ctx, tx, id)
		if err != nil {
			return err
		}

		others, err := tx.Session.ListByBatchAndDate(ctx, session.BatchID, date)
		if err != nil {
			return err
		}
		for i := range others {
			o := &others[i]
			if o.BatchSessionID == session.BatchSessionID {
				continue
			}
			if overlaps(start, end, o.StartTime, o.EndTime) {
				ordinal, err := tx.Session.CountUpToSequence(ctx, o.BatchID, o.SequenceNo)
				if err != nil {
					return err
				}
				metrics.RescheduleConflicts.Inc()
				return fmt.Errorf("%w: 与第 %d 节课（%s-%s）时间重叠",
					ErrSessionConflict, ordinal, shortClock(o.StartTime), shortClock(o.EndTime))
			}
		}

		oldValues = sessionSnapshot(session)
		session.Date = date
		session.StartTime = start
		session.EndTime = end
		session.Notes = &notes
		session.Status = model.SessionStatusRescheduled
		if req.Status != "" {
			session.Status = req.Status
		}
		session.UpdatedBy = &callerID
		return tx.Session.Update(ctx, session)
	})
	if err != nil {
		if !errors.Is(err, ErrSessionConflict) && !errors.Is(err, ErrSessionNotFound) {
			s.logger.Error("课次改期失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionReschedule,
		SubjectType: model.SubjectSession,
		SubjectID:   session.BatchSessionID,
		Description: fmt.Sprintf("课次改期至 %s %s-%s", formatDate(session.Date), shortClock(start), shortClock(end)),
		Old:         oldValues,
		New:         sessionSnapshot(session),
	})
	s.invalidateCalendar(ctx, session.BatchID)

	resp := toSessionResponse(session)
	return &resp, nil
}

func (s *sessionService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateSessionStatusRequest, callerID string) (*dto.SessionResponse, error) {
	if !model.IsValidSessionStatus(req.Status) {
		return nil, newValidationError("status", "课次状态无效")
	}

	session, err := s.getSession(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	oldValues := sessionSnapshot(session)
	session.Status = req.Status
	if req.Notes != nil {
		session.Notes = req.Notes
	}
	session.UpdatedBy = &callerID

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("更新课次状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionStatus,
		SubjectType: model.SubjectSession,
		SubjectID:   session.BatchSessionID,
		Description: fmt.Sprintf("课次状态变更为 %s", session.Status),
		Old:         oldValues,
		New:         sessionSnapshot(session),
	})
	s.invalidateCalendar(ctx, session.BatchID)

	resp := toSessionResponse(session)
	return &resp, nil
}

// ── 内部辅助方法 ──

func (s *sessionService) getSession(ctx context.Context, repo *repository.Repository, id string) (*model.BatchSession, error) {
	session, err := repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *sessionService) invalidateCalendar(ctx context.Context, batchID string) {
	if s.calendar != nil {
		s.calendar.Invalidate(ctx, batchID)
	}
}

// overlaps 半开区间 [start, end) 是否相交；时间均为 HH:MM:SS，可直接按字符串比较
func overlaps(start, end, otherStart, otherEnd string) bool {
	return start < otherEnd && end > otherStart
}

// shortClock HH:MM:SS → HH:MM
func shortClock(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}

func sessionSnapshot(s *model.BatchSession) map[string]interface{} {
	snap := map[string]interface{}{
		"date":       formatDate(s.Date),
		"start_time": s.StartTime,
		"end_time":   s.EndTime,
		"status":     s.Status,
		"notes":      nil,
	}
	if s.Notes != nil {
		snap["notes"] = *s.Notes
	}
	return snap
}
