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
)

// VenueService 场地业务接口
type VenueService interface {
	Create(ctx context.Context, req *dto.CreateVenueRequest, callerID string) (*dto.VenueResponse, error)
	GetByID(ctx context.Context, id string) (*dto.VenueResponse, error)
	List(ctx context.Context, req *dto.VenueListRequest) ([]dto.VenueResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateVenueRequest, callerID string) (*dto.VenueResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type venueService struct {
	repo     *repository.Repository
	recorder ActivityRecorder
	logger   *zap.Logger
}

// NewVenueService 创建 VenueService 实例
func NewVenueService(repo *repository.Repository, recorder ActivityRecorder, logger *zap.Logger) VenueService {
	return &venueService{repo: repo, recorder: recorder, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *venueService) Create(ctx context.Context, req *dto.CreateVenueRequest, callerID string) (*dto.VenueResponse, error) {
	venue := &model.Venue{
		Name:     strings.TrimSpace(req.Name),
		Address:  req.Address,
		IsActive: true,
	}
	venue.CreatedBy = &callerID
	venue.UpdatedBy = &callerID

	if err := s.repo.Venue.Create(ctx, venue); err != nil {
		s.logger.Error("创建场地失败", zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionCreate,
		SubjectType: model.SubjectVenue,
		SubjectID:   venue.VenueID,
		Description: fmt.Sprintf("创建场地「%s」", venue.Name),
		New:         venueSnapshot(venue),
	})

	return toVenueResponse(venue), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *venueService) GetByID(ctx context.Context, id string) (*dto.VenueResponse, error) {
	venue, err := s.getVenue(ctx, id)
	if err != nil {
		return nil, err
	}
	return toVenueResponse(venue), nil
}

// ────────────────────── List ──────────────────────

func (s *venueService) List(ctx context.Context, req *dto.VenueListRequest) ([]dto.VenueResponse, error) {
	venues, err := s.repo.Venue.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出场地失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.VenueResponse, 0, len(venues))
	for i := range venues {
		result = append(result, *toVenueResponse(&venues[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *venueService) Update(ctx context.Context, id string, req *dto.UpdateVenueRequest, callerID string) (*dto.VenueResponse, error) {
	venue, err := s.getVenue(ctx, id)
	if err != nil {
		return nil, err
	}

	oldSnapshot := venueSnapshot(venue)
	if req.Name != nil {
		venue.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		venue.Address = *req.Address
	}
	if req.IsActive != nil {
		venue.IsActive = *req.IsActive
	}
	venue.UpdatedBy = &callerID

	if err := s.repo.Venue.Update(ctx, venue); err != nil {
		s.logger.Error("更新场地失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if oldValues, newValues := diffSnapshots(oldSnapshot, venueSnapshot(venue)); len(newValues) > 0 {
		s.recorder.Record(ctx, ActivityEntry{
			ActorID:     callerID,
			Action:      model.ActionUpdate,
			SubjectType: model.SubjectVenue,
			SubjectID:   venue.VenueID,
			Description: fmt.Sprintf("更新场地「%s」", venue.Name),
			Old:         oldValues,
			New:         newValues,
		})
	}

	return toVenueResponse(venue), nil
}

// ────────────────────── Delete ──────────────────────

func (s *venueService) Delete(ctx context.Context, id string, callerID string) error {
	venue, err := s.getVenue(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Venue.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除场地失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionDelete,
		SubjectType: model.SubjectVenue,
		SubjectID:   id,
		Description: fmt.Sprintf("删除场地「%s」", venue.Name),
		Old:         venueSnapshot(venue),
	})
	return nil
}

// ── 内部辅助方法 ──

func (s *venueService) getVenue(ctx context.Context, id string) (*model.Venue, error) {
	venue, err := s.repo.Venue.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVenueNotFound
		}
		s.logger.Error("查询场地失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return venue, nil
}

func toVenueResponse(v *model.Venue) *dto.VenueResponse {
	return &dto.VenueResponse{
		ID:        v.VenueID,
		Name:      v.Name,
		Address:   v.Address,
		IsActive:  v.IsActive,
		CreatedAt: formatTimestamp(v.CreatedAt),
		UpdatedAt: formatTimestamp(v.UpdatedAt),
	}
}

func venueSnapshot(v *model.Venue) map[string]interface{} {
	return map[string]interface{}{
		"name":      v.Name,
		"address":   v.Address,
		"is_active": v.IsActive,
	}
}
