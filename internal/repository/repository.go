package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Venue       VenueRepository
	Batch       BatchRepository
	Session     SessionRepository
	Person      PersonRepository
	Attendance  AttendanceRepository
	ActivityLog ActivityLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		Venue:       NewVenueRepo(db),
		Batch:       NewBatchRepo(db),
		Session:     NewSessionRepo(db),
		Person:      NewPersonRepo(db),
		Attendance:  NewAttendanceRepo(db),
		ActivityLog: NewActivityLogRepo(db),
	}
}

// WithTx 返回绑定到事务的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// DB 底层连接
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Transaction 在单个数据库事务中执行 fn，fn 返回错误或 ctx 取消时整体回滚
// 未绑定数据库时（单元测试注入的 mock 聚合）直接以自身执行 fn
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
