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

// PersonService 学员 / 教练业务接口，pt 决定操作哪一类人员
type PersonService interface {
	Create(ctx context.Context, pt model.PersonType, req *dto.CreatePersonRequest, callerID string) (*dto.PersonResponse, error)
	GetByID(ctx context.Context, pt model.PersonType, id string) (*dto.PersonResponse, error)
	List(ctx context.Context, pt model.PersonType, req *dto.PersonListRequest) ([]dto.PersonResponse, int64, error)
	Update(ctx context.Context, pt model.PersonType, id string, req *dto.UpdatePersonRequest, callerID string) (*dto.PersonResponse, error)
	Delete(ctx context.Context, pt model.PersonType, id string, callerID string) error

	// GetRoster 班级名单中的 active 人员
	GetRoster(ctx context.Context, batchID string, pt model.PersonType) ([]dto.PersonBrief, error)
	// ReplaceRoster 整体替换班级名单
	ReplaceRoster(ctx context.Context, batchID string, pt model.PersonType, personIDs []string, callerID string) ([]dto.PersonBrief, error)
}

type personService struct {
	repo     *repository.Repository
	recorder ActivityRecorder
	logger   *zap.Logger
}

// NewPersonService 创建 PersonService 实例
func NewPersonService(repo *repository.Repository, recorder ActivityRecorder, logger *zap.Logger) PersonService {
	return &personService{repo: repo, recorder: recorder, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *personService) Create(ctx context.Context, pt model.PersonType, req *dto.CreatePersonRequest, callerID string) (*dto.PersonResponse, error) {
	profile := model.PersonProfile{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		Status:       req.Status,
		ExcuseReason: req.ExcuseReason,
	}
	if profile.Status == "" {
		profile.Status = model.PersonStatusActive
	}
	if req.ExcusedUntil != nil {
		d, err := parseOptionalDate(*req.ExcusedUntil)
		if err != nil {
			return nil, newValidationError("excused_until", "日期格式应为 YYYY-MM-DD")
		}
		profile.ExcusedUntil = d
	}

	person := model.NewSubject(pt, "", profile)
	audit := person.Audit()
	audit.CreatedBy = &callerID
	audit.UpdatedBy = &callerID

	if err := s.repo.Person.Create(ctx, person); err != nil {
		s.logger.Error("创建人员失败", zap.String("type", string(pt)), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionCreate,
		SubjectType: subjectTypeOf(pt),
		SubjectID:   person.SubjectID(),
		Description: fmt.Sprintf("创建%s「%s」", personLabel(pt), profile.Name),
		New:         personSnapshot(person.Profile()),
	})

	return toPersonResponse(person), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *personService) GetByID(ctx context.Context, pt model.PersonType, id string) (*dto.PersonResponse, error) {
	person, err := s.getPerson(ctx, pt, id)
	if err != nil {
		return nil, err
	}
	return toPersonResponse(person), nil
}

func (s *personService) List(ctx context.Context, pt model.PersonType, req *dto.PersonListRequest) ([]dto.PersonResponse, int64, error) {
	people, total, err := s.repo.Person.List(ctx, pt, repository.PersonListFilter{
		Status:  req.Status,
		Keyword: req.Keyword,
		Offset:  req.GetOffset(),
		Limit:   req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询人员列表失败", zap.String("type", string(pt)), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.PersonResponse, 0, len(people))
	for _, p := range people {
		result = append(result, *toPersonResponse(p))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *personService) Update(ctx context.Context, pt model.PersonType, id string, req *dto.UpdatePersonRequest, callerID string) (*dto.PersonResponse, error) {
	person, err := s.getPerson(ctx, pt, id)
	if err != nil {
		return nil, err
	}

	prof := person.Profile()
	oldSnapshot := personSnapshot(prof)

	if req.Name != nil {
		prof.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		prof.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		prof.Phone = *req.Phone
	}
	if req.Status != nil {
		prof.Status = *req.Status
	}
	if req.ExcusedUntil != nil {
		d, err := parseOptionalDate(*req.ExcusedUntil)
		if err != nil {
			return nil, newValidationError("excused_until", "日期格式应为 YYYY-MM-DD")
		}
		prof.ExcusedUntil = d
		if d == nil {
			prof.ExcuseReason = nil
		}
	}
	if req.ExcuseReason != nil {
		prof.ExcuseReason = req.ExcuseReason
	}

	if err := s.repo.Person.Update(ctx, person, callerID); err != nil {
		s.logger.Error("更新人员失败", zap.String("type", string(pt)), zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if oldValues, newValues := diffSnapshots(oldSnapshot, personSnapshot(prof)); len(newValues) > 0 {
		s.recorder.Record(ctx, ActivityEntry{
			ActorID:     callerID,
			Action:      model.ActionUpdate,
			SubjectType: subjectTypeOf(pt),
			SubjectID:   id,
			Description: fmt.Sprintf("更新%s「%s」", personLabel(pt), prof.Name),
			Old:         oldValues,
			New:         newValues,
		})
	}

	return toPersonResponse(person), nil
}

// ────────────────────── Delete ──────────────────────

func (s *personService) Delete(ctx context.Context, pt model.PersonType, id string, callerID string) error {
	person, err := s.getPerson(ctx, pt, id)
	if err != nil {
		return err
	}

	if err := s.repo.Person.Delete(ctx, pt, id, callerID); err != nil {
		s.logger.Error("删除人员失败", zap.String("type", string(pt)), zap.String("id", id), zap.Error(err))
		return err
	}

	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionDelete,
		SubjectType: subjectTypeOf(pt),
		SubjectID:   id,
		Description: fmt.Sprintf("删除%s「%s」", personLabel(pt), person.Profile().Name),
		Old:         personSnapshot(person.Profile()),
	})
	return nil
}

// ────────────────────── 班级名单 ──────────────────────

func (s *personService) GetRoster(ctx context.Context, batchID string, pt model.PersonType) ([]dto.PersonBrief, error) {
	if _, err := getBatchForAttendance(ctx, s.repo, batchID); err != nil {
		return nil, err
	}
	people, err := s.repo.Person.ListActiveByBatch(ctx, pt, batchID)
	if err != nil {
		s.logger.Error("查询班级名单失败", zap.String("batch_id", batchID), zap.Error(err))
		return nil, err
	}
	return toPersonBriefs(people), nil
}

func (s *personService) ReplaceRoster(ctx context.Context, batchID string, pt model.PersonType, personIDs []string, callerID string) ([]dto.PersonBrief, error) {
	if _, err := getBatchForAttendance(ctx, s.repo, batchID); err != nil {
		return nil, err
	}

	ids := uniqueIDs(personIDs)
	if err := ensurePersonsExist(ctx, s.repo, pt, ids, "person_ids"); err != nil {
		return nil, err
	}

	var people []model.AttendanceSubject
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Person.ReplaceRoster(ctx, pt, batchID, ids); err != nil {
			return err
		}
		var err error
		people, err = tx.Person.ListActiveByBatch(ctx, pt, batchID)
		return err
	})
	if err != nil {
		s.logger.Error("更新班级名单失败", zap.String("batch_id", batchID), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionRoster,
		SubjectType: model.SubjectBatch,
		SubjectID:   batchID,
		Description: fmt.Sprintf("更新班级%s名单，共 %d 人", personLabel(pt), len(ids)),
		New:         map[string]interface{}{"type": string(pt), "person_ids": ids},
	})

	return toPersonBriefs(people), nil
}

// ── 内部辅助方法 ──

func (s *personService) getPerson(ctx context.Context, pt model.PersonType, id string) (model.AttendanceSubject, error) {
	person, err := s.repo.Person.GetByID(ctx, pt, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		s.logger.Error("查询人员失败", zap.String("type", string(pt)), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return person, nil
}

// ensurePersonsExist 名单中的人员必须全部存在（未删除）
func ensurePersonsExist(ctx context.Context, repo *repository.Repository, pt model.PersonType, ids []string, field string) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := repo.Person.CountByIDs(ctx, pt, ids)
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return newValidationError(field, ErrRosterPersonMissing.Error())
	}
	return nil
}

func toPersonResponse(p model.AttendanceSubject) *dto.PersonResponse {
	prof := p.Profile()
	audit := p.Audit()
	return &dto.PersonResponse{
		ID:           p.SubjectID(),
		Type:         string(p.Kind()),
		Name:         prof.Name,
		Email:        prof.Email,
		Phone:        prof.Phone,
		Status:       prof.Status,
		ExcusedUntil: formatDatePtr(prof.ExcusedUntil),
		ExcuseReason: prof.ExcuseReason,
		CreatedAt:    formatTimestamp(audit.CreatedAt),
		UpdatedAt:    formatTimestamp(audit.UpdatedAt),
	}
}

func personSnapshot(p *model.PersonProfile) map[string]interface{} {
	snap := map[string]interface{}{
		"name":          p.Name,
		"email":         p.Email,
		"phone":         p.Phone,
		"status":        p.Status,
		"excused_until": nil,
		"excuse_reason": nil,
	}
	if p.ExcusedUntil != nil {
		snap["excused_until"] = formatDate(*p.ExcusedUntil)
	}
	if p.ExcuseReason != nil {
		snap["excuse_reason"] = *p.ExcuseReason
	}
	return snap
}

func subjectTypeOf(pt model.PersonType) string {
	if pt == model.PersonTypePartner {
		return model.SubjectPartner
	}
	return model.SubjectMember
}

func personLabel(pt model.PersonType) string {
	if pt == model.PersonTypePartner {
		return "教练"
	}
	return "学员"
}
