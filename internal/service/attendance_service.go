package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coach-center/config"
	"coach-center/internal/dto"
	"coach-center/internal/model"
	"coach-center/internal/repository"
	"coach-center/pkg/metrics"
)

// DefaultRecentAttendanceLimit 近期考勤默认条数
const DefaultRecentAttendanceLimit = 10

// ── 考勤模块业务错误 ──

var (
	ErrFutureDate       = errors.New("不能为未来日期标记考勤")
	ErrExcusedOnly      = errors.New("请假期间只能标记为 excused")
	ErrNoSessionForDate = errors.New("该日期没有课次")
	ErrNoAttendanceData = errors.New("班级没有在读人员或课次")
	ErrNotOnRoster      = errors.New("该人员不在班级的在读名单中")
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	// GetAll 班级全部课次 × active 人员的考勤；过去与当天的缺失记录会被补建
	GetAll(ctx context.Context, batchID string, pt model.PersonType) ([]dto.AttendanceItem, error)
	// GetByDate 单日考勤（只读，不补建）
	GetByDate(ctx context.Context, batchID string, pt model.PersonType, date string) ([]dto.AttendanceItem, error)
	// Mark 标记单条考勤（按课次 + 人员 upsert）
	Mark(ctx context.Context, req *dto.MarkAttendanceRequest, callerID string) (*dto.AttendanceItem, error)
	// Recent 人员最近的考勤记录（课次日期 ≤ 今天）
	Recent(ctx context.Context, pt model.PersonType, personID string) ([]dto.RecentAttendanceItem, error)
}

type attendanceService struct {
	repo        *repository.Repository
	clock       Clock
	recorder    ActivityRecorder
	recentLimit int
	logger      *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(cfg *config.AppConfig, repo *repository.Repository, clock Clock, recorder ActivityRecorder, logger *zap.Logger) AttendanceService {
	limit := cfg.RecentAttendanceLimit
	if limit <= 0 {
		limit = DefaultRecentAttendanceLimit
	}
	return &attendanceService{
		repo:        repo,
		clock:       clock,
		recorder:    recorder,
		recentLimit: limit,
		logger:      logger,
	}
}

// ════════════════════════════════════════════════════════════
// GetAll — 读取即补建，整个过程在单个事务内完成
// ════════════════════════════════════════════════════════════

func (s *attendanceService) GetAll(ctx context.Context, batchID string, pt model.PersonType) ([]dto.AttendanceItem, error) {
	today := Today(s.clock)
	var items []dto.AttendanceItem

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		batch, err := getBatchForAttendance(ctx, tx, batchID)
		if err != nil {
			return err
		}

		persons, err := tx.Person.ListActiveByBatch(ctx, pt, batchID)
		if err != nil {
			return err
		}
		sessions, err := tx.Session.ListByBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if len(persons) == 0 || len(sessions) == 0 {
			return ErrNoAttendanceData
		}

		pastIDs := make([]string, 0, len(sessions))
		for i := range sessions {
			if !sessions[i].Date.After(today) {
				pastIDs = append(pastIDs, sessions[i].BatchSessionID)
			}
		}

		records := map[string]*model.AttendanceRecord{}
		if len(pastIDs) > 0 {
			existing, err := tx.Attendance.ListBySessions(ctx, pt, pastIDs)
			if err != nil {
				return err
			}
			records = indexRecords(existing)

			missing := make([]model.AttendanceRecord, 0)
			for _, sid := range pastIDs {
				for _, p := range persons {
					if _, ok := records[recordKey(sid, p.SubjectID())]; ok {
						continue
					}
					missing = append(missing, model.AttendanceRecord{
						AttendanceID:   uuid.NewString(),
						BatchSessionID: sid,
						PersonID:       p.SubjectID(),
						Status:         model.AttendanceNotMarked,
					})
				}
			}

			if len(missing) > 0 {
				inserted, err := tx.Attendance.InsertMissing(ctx, pt, missing)
				if err != nil {
					return err
				}
				metrics.AttendanceMaterialized.WithLabelValues(string(pt)).Add(float64(inserted))

				// 并发请求可能已插入部分行，重新读取以拿到实际落库的记录
				reloaded, err := tx.Attendance.ListBySessions(ctx, pt, pastIDs)
				if err != nil {
					return err
				}
				records = indexRecords(reloaded)
			}
		}

		items = make([]dto.AttendanceItem, 0, len(sessions)*len(persons))
		for i := range sessions {
			sess := &sessions[i]
			editable := !sess.Date.After(today)
			for _, p := range persons {
				var rec *model.AttendanceRecord
				if editable {
					rec = records[recordKey(sess.BatchSessionID, p.SubjectID())]
				}
				items = append(items, buildAttendanceItem(batch, sess, p, rec, editable))
			}
		}
		return nil
	})
	if err != nil {
		if !isAttendanceClientError(err) {
			s.logger.Error("查询班级考勤失败", zap.String("batch_id", batchID), zap.String("type", string(pt)), zap.Error(err))
		}
		return nil, err
	}
	return items, nil
}

// ════════════════════════════════════════════════════════════
// GetByDate
// ════════════════════════════════════════════════════════════

func (s *attendanceService) GetByDate(ctx context.Context, batchID string, pt model.PersonType, date string) ([]dto.AttendanceItem, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, newValidationError("date", "日期格式应为 YYYY-MM-DD")
	}

	batch, err := getBatchForAttendance(ctx, s.repo, batchID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.Session.ListByBatchAndDate(ctx, batchID, day)
	if err != nil {
		s.logger.Error("查询课次失败", zap.String("batch_id", batchID), zap.Error(err))
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessionForDate
	}
	persons, err := s.repo.Person.ListActiveByBatch(ctx, pt, batchID)
	if err != nil {
		s.logger.Error("查询班级名单失败", zap.String("batch_id", batchID), zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(sessions))
	for i := range sessions {
		ids = append(ids, sessions[i].BatchSessionID)
	}
	existing, err := s.repo.Attendance.ListBySessions(ctx, pt, ids)
	if err != nil {
		s.logger.Error("查询考勤失败", zap.String("batch_id", batchID), zap.Error(err))
		return nil, err
	}
	records := indexRecords(existing)

	editable := !day.After(Today(s.clock))
	items := make([]dto.AttendanceItem, 0, len(sessions)*len(persons))
	for i := range sessions {
		sess := &sessions[i]
		for _, p := range persons {
			items = append(items, buildAttendanceItem(batch, sess, p, records[recordKey(sess.BatchSessionID, p.SubjectID())], editable))
		}
	}
	return items, nil
}

// ════════════════════════════════════════════════════════════
// Mark — 校验顺序：未来日期 → 人员 → 班级名单 → 请假约束 → 课次
// ════════════════════════════════════════════════════════════

func (s *attendanceService) Mark(ctx context.Context, req *dto.MarkAttendanceRequest, callerID string) (*dto.AttendanceItem, error) {
	pt, ok := model.ParsePersonType(req.Type)
	if !ok {
		return nil, newValidationError("type", "类型只能是 member 或 partner")
	}
	if !model.IsValidAttendanceStatus(req.Status) {
		return nil, newValidationError("status", "考勤状态无效")
	}
	day, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, newValidationError("date", "日期格式应为 YYYY-MM-DD")
	}
	if day.After(Today(s.clock)) {
		return nil, ErrFutureDate
	}

	var (
		item      dto.AttendanceItem
		person    model.AttendanceSubject
		oldStatus string
	)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		person, err = tx.Person.GetByID(ctx, pt, req.PersonID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPersonNotFound
			}
			return err
		}

		batch, err := getBatchForAttendance(ctx, tx, req.BatchID)
		if err != nil {
			return err
		}

		// 只有名单内的 active 人员参与考勤
		onRoster, err := tx.Person.IsActiveOnBatch(ctx, pt, req.BatchID, person.SubjectID())
		if err != nil {
			return err
		}
		if !onRoster {
			return ErrNotOnRoster
		}

		prof := person.Profile()
		if prof.ExcusedOn(day) && req.Status != model.AttendanceExcused {
			return fmt.Errorf("%w: %s 已请假至 %s", ErrExcusedOnly, prof.Name, formatDate(*prof.ExcusedUntil))
		}
		sessions, err := tx.Session.ListByBatchAndDate(ctx, req.BatchID, day)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			return ErrNoSessionForDate
		}
		sess := &sessions[0]

		oldStatus = model.AttendanceNotMarked
		prev, err := tx.Attendance.GetBySessionAndPerson(ctx, pt, sess.BatchSessionID, person.SubjectID())
		switch {
		case err == nil:
			oldStatus = prev.Status
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		now := s.clock.Now()
		rec := &model.AttendanceRecord{
			AttendanceID:   uuid.NewString(),
			BatchSessionID: sess.BatchSessionID,
			PersonID:       person.SubjectID(),
			Status:         req.Status,
			MarkedAt:       &now,
			MarkedBy:       &callerID,
			Notes:          req.Notes,
		}
		if err := tx.Attendance.Upsert(ctx, pt, rec); err != nil {
			return err
		}

		item = buildAttendanceItem(batch, sess, person, rec, true)
		return nil
	})
	if err != nil {
		if !isAttendanceClientError(err) {
			s.logger.Error("标记考勤失败",
				zap.String("type", req.Type),
				zap.String("person_id", req.PersonID),
				zap.String("batch_id", req.BatchID),
				zap.String("date", req.Date),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.AttendanceMarked.WithLabelValues(string(pt), req.Status).Inc()

	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionMark,
		SubjectType: model.SubjectAttendance,
		SubjectID:   deref(item.ID),
		Description: fmt.Sprintf("标记 %s 在 %s 的考勤为 %s", person.Profile().Name, req.Date, req.Status),
		Old:         map[string]interface{}{"status": oldStatus},
		New:         map[string]interface{}{"status": req.Status, "notes": req.Notes},
	})

	return &item, nil
}

// ════════════════════════════════════════════════════════════
// Recent
// ════════════════════════════════════════════════════════════

func (s *attendanceService) Recent(ctx context.Context, pt model.PersonType, personID string) ([]dto.RecentAttendanceItem, error) {
	if _, err := s.repo.Person.GetByID(ctx, pt, personID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		s.logger.Error("查询人员失败", zap.String("id", personID), zap.Error(err))
		return nil, err
	}

	rows, err := s.repo.Attendance.ListRecentByPerson(ctx, pt, personID, Today(s.clock), s.recentLimit)
	if err != nil {
		s.logger.Error("查询近期考勤失败", zap.String("id", personID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.RecentAttendanceItem, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		result = append(result, dto.RecentAttendanceItem{
			ID:        r.AttendanceID,
			Status:    r.Status,
			MarkedAt:  formatTimestampPtr(r.MarkedAt),
			Notes:     r.Notes,
			Date:      formatDate(r.SessionDate),
			SessionID: r.BatchSessionID,
			Batch:     dto.BatchBrief{ID: r.BatchID, Name: r.BatchName},
		})
	}
	return result, nil
}

// ── 内部辅助方法 ──

func getBatchForAttendance(ctx context.Context, repo *repository.Repository, batchID string) (*model.Batch, error) {
	batch, err := repo.Batch.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return batch, nil
}

func recordKey(sessionID, personID string) string {
	return sessionID + "/" + personID
}

func indexRecords(records []model.AttendanceRecord) map[string]*model.AttendanceRecord {
	idx := make(map[string]*model.AttendanceRecord, len(records))
	for i := range records {
		idx[recordKey(records[i].BatchSessionID, records[i].PersonID)] = &records[i]
	}
	return idx
}

// buildAttendanceItem rec 为 nil 时合成一条未标记记录（无 id）
func buildAttendanceItem(batch *model.Batch, sess *model.BatchSession, person model.AttendanceSubject, rec *model.AttendanceRecord, editable bool) dto.AttendanceItem {
	item := dto.AttendanceItem{
		Status:     model.AttendanceNotMarked,
		IsEditable: editable,
		BatchSession: dto.AttendanceSessionRef{
			ID:        sess.BatchSessionID,
			Date:      formatDate(sess.Date),
			StartTime: sess.StartTime,
			EndTime:   sess.EndTime,
			Batch:     dto.BatchBrief{ID: batch.BatchID, Name: batch.Name},
		},
	}
	if rec != nil {
		item.ID = strPtr(rec.AttendanceID)
		item.Status = rec.Status
		item.MarkedAt = formatTimestampPtr(rec.MarkedAt)
		item.MarkedBy = rec.MarkedBy
		item.Notes = rec.Notes
	}

	item.DisplayStatus = displayStatus(person.Profile(), sess.Date, item.Status)

	brief := toPersonBrief(person)
	if person.Kind() == model.PersonTypePartner {
		item.Partner = &brief
	} else {
		item.Member = &brief
	}
	return item
}

// displayStatus 请假覆盖该课次日期时显示 "Excused Until <date>"，否则显示存储状态
func displayStatus(prof *model.PersonProfile, sessionDate time.Time, status string) string {
	if prof.ExcusedOn(sessionDate) {
		return "Excused Until " + formatDate(*prof.ExcusedUntil)
	}
	return humanizeStatus(status)
}

func isAttendanceClientError(err error) bool {
	return errors.Is(err, ErrBatchNotFound) ||
		errors.Is(err, ErrPersonNotFound) ||
		errors.Is(err, ErrNoAttendanceData) ||
		errors.Is(err, ErrNoSessionForDate) ||
		errors.Is(err, ErrNotOnRoster) ||
		errors.Is(err, ErrExcusedOnly)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
