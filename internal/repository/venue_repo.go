package repository

import (
	"context"

	"gorm.io/gorm"

	"coach-center/internal/model"
)

// VenueRepository 场地数据访问接口
type VenueRepository interface {
	Create(ctx context.Context, venue *model.Venue) error
	GetByID(ctx context.Context, id string) (*model.Venue, error)
	List(ctx context.Context, includeInactive bool) ([]model.Venue, error)
	Update(ctx context.Context, venue *model.Venue) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type venueRepo struct {
	db *gorm.DB
}

// NewVenueRepo 创建 VenueRepository 实例
func NewVenueRepo(db *gorm.DB) VenueRepository {
	return &venueRepo{db: db}
}

func (r *venueRepo) Create(ctx context.Context, venue *model.Venue) error {
	return r.db.WithContext(ctx).Create(venue).Error
}

func (r *venueRepo) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	var venue model.Venue
	err := r.db.WithContext(ctx).
		Where("venue_id = ?", id).
		First(&venue).Error
	if err != nil {
		return nil, err
	}
	return &venue, nil
}

func (r *venueRepo) List(ctx context.Context, includeInactive bool) ([]model.Venue, error) {
	var venues []model.Venue
	db := r.db.WithContext(ctx)

	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}

	err := db.Order("name ASC").Find(&venues).Error
	return venues, err
}

func (r *venueRepo) Update(ctx context.Context, venue *model.Venue) error {
	return r.db.WithContext(ctx).
		Model(venue).
		Where("venue_id = ?", venue.VenueID).
		Updates(map[string]interface{}{
			"name":       venue.Name,
			"address":    venue.Address,
			"is_active":  venue.IsActive,
			"updated_by": venue.UpdatedBy,
		}).Error
}

func (r *venueRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Venue{}).
		Where("venue_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
