package repository

import (
	"context"

	"gorm.io/gorm"

	"coach-center/internal/model"
	pkgerrors "coach-center/pkg/errors"
)

// BatchListFilter 班级列表筛选条件
type BatchListFilter struct {
	Keyword string
	Status  string
	VenueID string
	Offset  int
	Limit   int
}

// BatchRepository 班级数据访问接口
type BatchRepository interface {
	Create(ctx context.Context, batch *model.Batch) error
	GetByID(ctx context.Context, id string) (*model.Batch, error)
	List(ctx context.Context, filter BatchListFilter) ([]model.Batch, int64, error)
	Update(ctx context.Context, batch *model.Batch) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type batchRepo struct {
	db *gorm.DB
}

// NewBatchRepo 创建 BatchRepository 实例
func NewBatchRepo(db *gorm.DB) BatchRepository {
	return &batchRepo{db: db}
}

func (r *batchRepo) Create(ctx context.Context, batch *model.Batch) error {
	return r.db.WithContext(ctx).Omit("Venue", "Sessions").Create(batch).Error
}

func (r *batchRepo) GetByID(ctx context.Context, id string) (*model.Batch, error) {
	var batch model.Batch
	err := r.db.WithContext(ctx).
		Preload("Venue").
		Where("batch_id = ?", id).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepo) List(ctx context.Context, filter BatchListFilter) ([]model.Batch, int64, error) {
	var batches []model.Batch
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Batch{})

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.VenueID != "" {
		db = db.Where("venue_id = ?", filter.VenueID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Venue").
		Order("start_date DESC NULLS LAST, name ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&batches).Error

	return batches, total, err
}

func (r *batchRepo) Update(ctx context.Context, batch *model.Batch) error {
	oldVersion := batch.Version
	result := r.db.WithContext(ctx).
		Model(&model.Batch{}).
		Where("batch_id = ? AND version = ?", batch.BatchID, oldVersion).
		Updates(map[string]interface{}{
			"venue_id":               batch.VenueID,
			"name":                   batch.Name,
			"description":            batch.Description,
			"type":                   batch.Type,
			"start_date":             batch.StartDate,
			"end_date":               batch.EndDate,
			"session_start_time":     batch.SessionStartTime,
			"session_end_time":       batch.SessionEndTime,
			"no_of_sessions":         batch.NoOfSessions,
			"schedule_pattern":       batch.SchedulePattern,
			"selected_session_dates": batch.SelectedSessionDates,
			"status":                 batch.Status,
			"updated_by":             batch.UpdatedBy,
			"version":                oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	batch.Version = oldVersion + 1
	return nil
}

func (r *batchRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Batch{}).
		Where("batch_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
