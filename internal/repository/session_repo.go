package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"coach-center/internal/model"
)

// sessionInsertBatchSize 批量插入课次的分批大小
const sessionInsertBatchSize = 200

// SessionRepository 课次数据访问接口
type SessionRepository interface {
	BatchCreate(ctx context.Context, sessions []model.BatchSession) error
	GetByID(ctx context.Context, id string) (*model.BatchSession, error)
	ListByBatch(ctx context.Context, batchID string) ([]model.BatchSession, error)
	ListByBatchAndDate(ctx context.Context, batchID string, date time.Time) ([]model.BatchSession, error)
	// CountUpToSequence 统计班级内 sequence_no ≤ seq 的课次数（冲突提示中的序号）
	CountUpToSequence(ctx context.Context, batchID string, seq int) (int64, error)
	Update(ctx context.Context, session *model.BatchSession) error
	DeleteByBatch(ctx context.Context, batchID string) (int64, error)
	// CompletePast 将已结束的 scheduled 课次置为 completed
	CompletePast(ctx context.Context, today time.Time, clock string) (int64, error)
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) BatchCreate(ctx context.Context, sessions []model.BatchSession) error {
	if len(sessions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Omit("Batch").
		CreateInBatches(&sessions, sessionInsertBatchSize).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.BatchSession, error) {
	var session model.BatchSession
	err := r.db.WithContext(ctx).
		Preload("Batch").
		Where("batch_session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListByBatch(ctx context.Context, batchID string) ([]model.BatchSession, error) {
	var sessions []model.BatchSession
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("date ASC, start_time ASC, sequence_no ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) ListByBatchAndDate(ctx context.Context, batchID string, date time.Time) ([]model.BatchSession, error) {
	var sessions []model.BatchSession
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND date = ?", batchID, model.DateOf(date).Format(model.DateLayout)).
		Order("start_time ASC, sequence_no ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) CountUpToSequence(ctx context.Context, batchID string, seq int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BatchSession{}).
		Where("batch_id = ? AND sequence_no <= ?", batchID, seq).
		Count(&count).Error
	return count, err
}

func (r *sessionRepo) Update(ctx context.Context, session *model.BatchSession) error {
	return r.db.WithContext(ctx).
		Model(&model.BatchSession{}).
		Where("batch_session_id = ?", session.BatchSessionID).
		Updates(map[string]interface{}{
			"date":       session.Date.Format(model.DateLayout),
			"start_time": session.StartTime,
			"end_time":   session.EndTime,
			"status":     session.Status,
			"notes":      session.Notes,
			"updated_by": session.UpdatedBy,
		}).Error
}

func (r *sessionRepo) DeleteByBatch(ctx context.Context, batchID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Delete(&model.BatchSession{})
	return result.RowsAffected, result.Error
}

func (r *sessionRepo) CompletePast(ctx context.Context, today time.Time, clock string) (int64, error) {
	day := model.DateOf(today).Format(model.DateLayout)
	result := r.db.WithContext(ctx).
		Model(&model.BatchSession{}).
		Where("status = ?", model.SessionStatusScheduled).
		Where("date < ? OR (date = ? AND end_time <= ?)", day, day, clock).
		Updates(map[string]interface{}{
			"status":     model.SessionStatusCompleted,
			"updated_at": gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}
