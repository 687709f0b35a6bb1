package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coach-center/internal/model"
)

// attendanceInsertBatchSize 补建考勤行的分批大小
const attendanceInsertBatchSize = 500

var attendanceKey = []clause.Column{{Name: "batch_session_id"}, {Name: "person_id"}}

// AttendanceRepository 考勤数据访问接口，按 PersonType 分派到 member_attendances / partner_attendances
type AttendanceRepository interface {
	// InsertMissing 补建考勤行，(batch_session_id, person_id) 已存在的行被忽略，返回实际插入数
	InsertMissing(ctx context.Context, pt model.PersonType, rows []model.AttendanceRecord) (int64, error)
	ListBySessions(ctx context.Context, pt model.PersonType, sessionIDs []string) ([]model.AttendanceRecord, error)
	GetBySessionAndPerson(ctx context.Context, pt model.PersonType, sessionID, personID string) (*model.AttendanceRecord, error)
	// Upsert 按 (batch_session_id, person_id) 插入或原地更新 status/notes/marked_at/marked_by
	Upsert(ctx context.Context, pt model.PersonType, rec *model.AttendanceRecord) error
	// ListRecentByPerson 课次日期 ≤ today 的最近记录，按课次日期、marked_at 倒序
	ListRecentByPerson(ctx context.Context, pt model.PersonType, personID string, today time.Time, limit int) ([]model.AttendanceWithSession, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) InsertMissing(ctx context.Context, pt model.PersonType, rows []model.AttendanceRecord) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Table(pt.AttendanceTable()).
		Clauses(clause.OnConflict{Columns: attendanceKey, DoNothing: true}).
		CreateInBatches(&rows, attendanceInsertBatchSize)
	return result.RowsAffected, result.Error
}

func (r *attendanceRepo) ListBySessions(ctx context.Context, pt model.PersonType, sessionIDs []string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	if len(sessionIDs) == 0 {
		return records, nil
	}
	err := r.db.WithContext(ctx).
		Table(pt.AttendanceTable()).
		Where("batch_session_id IN ?", sessionIDs).
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) GetBySessionAndPerson(ctx context.Context, pt model.PersonType, sessionID, personID string) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Table(pt.AttendanceTable()).
		Where("batch_session_id = ? AND person_id = ?", sessionID, personID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *attendanceRepo) Upsert(ctx context.Context, pt model.PersonType, rec *model.AttendanceRecord) error {
	err := r.db.WithContext(ctx).
		Table(pt.AttendanceTable()).
		Clauses(clause.OnConflict{
			Columns:   attendanceKey,
			DoUpdates: clause.AssignmentColumns([]string{"status", "notes", "marked_at", "marked_by", "updated_at"}),
		}).
		Create(rec).Error
	if err != nil {
		return err
	}

	// 冲突更新时 RETURNING 拿不到原行的创建时间，重新读取
	stored, err := r.GetBySessionAndPerson(ctx, pt, rec.BatchSessionID, rec.PersonID)
	if err != nil {
		return err
	}
	*rec = *stored
	return nil
}

func (r *attendanceRepo) ListRecentByPerson(ctx context.Context, pt model.PersonType, personID string, today time.Time, limit int) ([]model.AttendanceWithSession, error) {
	var rows []model.AttendanceWithSession
	err := r.db.WithContext(ctx).
		Table(pt.AttendanceTable()+" AS a").
		Select("a.*, s.date AS session_date, s.batch_id AS batch_id, b.name AS batch_name").
		Joins("JOIN batch_sessions s ON s.batch_session_id = a.batch_session_id").
		Joins("JOIN batches b ON b.batch_id = s.batch_id AND b.deleted_at IS NULL").
		Where("a.person_id = ? AND s.date <= ?", personID, model.DateOf(today).Format(model.DateLayout)).
		Order("s.date DESC, a.marked_at DESC NULLS LAST, s.start_time DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
