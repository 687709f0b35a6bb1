package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coach-center/config"
	"coach-center/internal/dto"
	"coach-center/internal/model"
	"coach-center/internal/repository"
	"coach-center/pkg/metrics"
)

// scheduleFields 变化后触发课次重建的字段
var scheduleFields = []string{
	"start_date",
	"end_date",
	"session_start_time",
	"session_end_time",
	"no_of_sessions",
	"schedule_pattern",
	"type",
	"selected_session_dates",
}

// BatchService 班级业务接口
type BatchService interface {
	// Create 创建班级并在同一事务内生成课次
	Create(ctx context.Context, req *dto.CreateBatchRequest, callerID string) (*dto.BatchResponse, error)
	// GetByID 班级详情（含课次与 active 名单）
	GetByID(ctx context.Context, id string) (*dto.BatchResponse, error)
	// List 班级列表（含 active 名单）
	List(ctx context.Context, req *dto.BatchListRequest) ([]dto.BatchResponse, int64, error)
	// Update 部分更新；排课字段实际变化时整体重建课次
	Update(ctx context.Context, id string, req *dto.UpdateBatchRequest, callerID string) (*dto.BatchResponse, error)
	// RegenerateSessions 删除全部课次并按当前配置重新生成（单事务）
	RegenerateSessions(ctx context.Context, id string, callerID string) (*dto.BatchResponse, error)
	// Delete 软删除班级并删除其课次
	Delete(ctx context.Context, id string, callerID string) error
}

type batchService struct {
	repo        *repository.Repository
	recorder    ActivityRecorder
	calendar    CalendarInvalidator
	maxSpanDays int
	logger      *zap.Logger
}

// NewBatchService 创建 BatchService 实例；calendar 可为 nil
func NewBatchService(cfg *config.AppConfig, repo *repository.Repository, recorder ActivityRecorder, calendar CalendarInvalidator, logger *zap.Logger) BatchService {
	return &batchService{
		repo:        repo,
		recorder:    recorder,
		calendar:    calendar,
		maxSpanDays: cfg.MaxScheduleSpanDays,
		logger:      logger,
	}
}

// ════════════════════════════════════════════════════════════
// Create
// ════════════════════════════════════════════════════════════

func (s *batchService) Create(ctx context.Context, req *dto.CreateBatchRequest, callerID string) (*dto.BatchResponse, error) {
	errs := fieldErrors{}

	batch := &model.Batch{
		Name:                 strings.TrimSpace(req.Name),
		Description:          req.Description,
		VenueID:              req.VenueID,
		Type:                 req.Type,
		StartDate:            parseDateField(errs, "start_date", req.StartDate),
		EndDate:              parseDateField(errs, "end_date", req.EndDate),
		SessionStartTime:     normalizeClockField(errs, "session_start_time", req.SessionStartTime),
		SessionEndTime:       normalizeClockField(errs, "session_end_time", req.SessionEndTime),
		NoOfSessions:         req.NoOfSessions,
		SchedulePattern:      strings.TrimSpace(req.SchedulePattern),
		SelectedSessionDates: pq.StringArray(req.SelectedSessionDates),
		Status:               req.Status,
	}
	if batch.Status == "" {
		batch.Status = model.BatchStatusActive
	}
	validateSchedule(batch, errs)
	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := s.ensureVenue(ctx, batch.VenueID); err != nil {
		return nil, err
	}

	memberIDs, partnerIDs := uniqueIDs(req.MemberIDs), uniqueIDs(req.PartnerIDs)
	if err := ensurePersonsExist(ctx, s.repo, model.PersonTypeMember, memberIDs, "member_ids"); err != nil {
		return nil, err
	}
	if err := ensurePersonsExist(ctx, s.repo, model.PersonTypePartner, partnerIDs, "partner_ids"); err != nil {
		return nil, err
	}

	batch.CreatedBy = &callerID
	batch.UpdatedBy = &callerID

	var plan SessionPlan
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Batch.Create(ctx, batch); err != nil {
			return err
		}
		if len(memberIDs) > 0 {
			if err := tx.Person.ReplaceRoster(ctx, model.PersonTypeMember, batch.BatchID, memberIDs); err != nil {
				return err
			}
		}
		if len(partnerIDs) > 0 {
			if err := tx.Person.ReplaceRoster(ctx, model.PersonTypePartner, batch.BatchID, partnerIDs); err != nil {
				return err
			}
		}

		var err error
		plan, err = s.generateSessions(ctx, tx, batch)
		return err
	})
	if err != nil {
		s.logger.Error("创建班级失败", zap.String("name", batch.Name), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionCreate,
		SubjectType: model.SubjectBatch,
		SubjectID:   batch.BatchID,
		Description: fmt.Sprintf("创建班级「%s」，生成 %d 节课", batch.Name, len(plan.Sessions)),
		New:         batchSnapshot(batch),
	})

	return s.buildDetail(ctx, batch, summarize(plan, false))
}

// ════════════════════════════════════════════════════════════
// GetByID / List
// ════════════════════════════════════════════════════════════

func (s *batchService) GetByID(ctx context.Context, id string) (*dto.BatchResponse, error) {
	batch, err := s.getBatch(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, batch, nil)
}

func (s *batchService) List(ctx context.Context, req *dto.BatchListRequest) ([]dto.BatchResponse, int64, error) {
	batches, total, err := s.repo.Batch.List(ctx, repository.BatchListFilter{
		Keyword: req.Keyword,
		Status:  req.Status,
		VenueID: req.VenueID,
		Offset:  req.GetOffset(),
		Limit:   req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询班级列表失败", zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, 0, len(batches))
	for i := range batches {
		ids = append(ids, batches[i].BatchID)
	}

	members, err := s.repo.Person.ListActiveByBatches(ctx, model.PersonTypeMember, ids)
	if err != nil {
		s.logger.Error("查询班级学员失败", zap.Error(err))
		return nil, 0, err
	}
	partners, err := s.repo.Person.ListActiveByBatches(ctx, model.PersonTypePartner, ids)
	if err != nil {
		s.logger.Error("查询班级教练失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.BatchResponse, 0, len(batches))
	for i := range batches {
		b := &batches[i]
		result = append(result, *toBatchResponse(b, members[b.BatchID], partners[b.BatchID]))
	}
	return result, total, nil
}

// ════════════════════════════════════════════════════════════
// Update — 排课字段归一化比较，变化则整体重建课次
// ════════════════════════════════════════════════════════════

func (s *batchService) Update(ctx context.Context, id string, req *dto.UpdateBatchRequest, callerID string) (*dto.BatchResponse, error) {
	batch, err := s.getBatch(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	oldSnapshot := batchSnapshot(batch)
	oldKeys := scheduleKeys(batch)
	present := make(map[string]bool)
	errs := fieldErrors{}

	if req.Name != nil {
		batch.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		batch.Description = *req.Description
	}
	if req.VenueID != nil {
		if *req.VenueID == "" {
			batch.VenueID = nil
		} else {
			batch.VenueID = req.VenueID
		}
		batch.Venue = nil
	}
	if req.Status != nil {
		batch.Status = *req.Status
	}
	if req.Type != nil {
		present["type"] = true
		batch.Type = *req.Type
	}
	if req.StartDate != nil {
		present["start_date"] = true
		batch.StartDate = parseDateField(errs, "start_date", req.StartDate)
	}
	if req.EndDate != nil {
		present["end_date"] = true
		batch.EndDate = parseDateField(errs, "end_date", req.EndDate)
	}
	if req.SessionStartTime != nil {
		present["session_start_time"] = true
		batch.SessionStartTime = normalizeClockField(errs, "session_start_time", *req.SessionStartTime)
	}
	if req.SessionEndTime != nil {
		present["session_end_time"] = true
		batch.SessionEndTime = normalizeClockField(errs, "session_end_time", *req.SessionEndTime)
	}
	if req.NoOfSessions != nil {
		present["no_of_sessions"] = true
		batch.NoOfSessions = req.NoOfSessions
	}
	if req.SchedulePattern != nil {
		present["schedule_pattern"] = true
		batch.SchedulePattern = strings.TrimSpace(*req.SchedulePattern)
	}
	if req.SelectedSessionDates != nil {
		present["selected_session_dates"] = true
		batch.SelectedSessionDates = pq.StringArray(*req.SelectedSessionDates)
	}

	validateSchedule(batch, errs)
	if err := errs.err(); err != nil {
		return nil, err
	}
	if req.VenueID != nil {
		if err := s.ensureVenue(ctx, batch.VenueID); err != nil {
			return nil, err
		}
	}

	newKeys := scheduleKeys(batch)
	regenerate := false
	for _, field := range scheduleFields {
		if present[field] && oldKeys[field] != newKeys[field] {
			regenerate = true
			break
		}
	}

	batch.UpdatedBy = &callerID

	var plan SessionPlan
	var deleted int64
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Batch.Update(ctx, batch); err != nil {
			return err
		}
		if !regenerate {
			return nil
		}
		var err error
		plan, deleted, err = s.regenerate(ctx, tx, batch)
		return err
	})
	if err != nil {
		s.logger.Error("更新班级失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	oldValues, newValues := diffSnapshots(oldSnapshot, batchSnapshot(batch))
	if len(newValues) > 0 {
		s.recorder.Record(ctx, ActivityEntry{
			ActorID:     callerID,
			Action:      model.ActionUpdate,
			SubjectType: model.SubjectBatch,
			SubjectID:   batch.BatchID,
			Description: fmt.Sprintf("更新班级「%s」", batch.Name),
			Old:         oldValues,
			New:         newValues,
		})
	}

	var gen *dto.GenerationSummary
	if regenerate {
		s.afterRegenerate(ctx, batch, plan, deleted, callerID)
		gen = summarize(plan, true)
	}

	return s.buildDetail(ctx, batch, gen)
}

// ════════════════════════════════════════════════════════════
// RegenerateSessions
// ════════════════════════════════════════════════════════════

func (s *batchService) RegenerateSessions(ctx context.Context, id string, callerID string) (*dto.BatchResponse, error) {
	var batch *model.Batch
	var plan SessionPlan
	var deleted int64

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		batch, err = s.getBatch(ctx, tx, id)
		if err != nil {
			return err
		}
		plan, deleted, err = s.regenerate(ctx, tx, batch)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrBatchNotFound) {
			s.logger.Error("重建课次失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.afterRegenerate(ctx, batch, plan, deleted, callerID)
	return s.buildDetail(ctx, batch, summarize(plan, true))
}

// ════════════════════════════════════════════════════════════
// Delete
// ════════════════════════════════════════════════════════════

func (s *batchService) Delete(ctx context.Context, id string, callerID string) error {
	batch, err := s.getBatch(ctx, s.repo, id)
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Session.DeleteByBatch(ctx, id); err != nil {
			return err
		}
		return tx.Batch.Delete(ctx, id, callerID)
	})
	if err != nil {
		s.logger.Error("删除班级失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionDelete,
		SubjectType: model.SubjectBatch,
		SubjectID:   id,
		Description: fmt.Sprintf("删除班级「%s」", batch.Name),
		Old:         batchSnapshot(batch),
	})
	s.invalidateCalendar(ctx, id)
	return nil
}

// ── 课次生成 ──

// generateSessions 计算并写入课次；调用方负责事务与事先清理
func (s *batchService) generateSessions(ctx context.Context, tx *repository.Repository, batch *model.Batch) (SessionPlan, error) {
	plan := PlanSessions(batch, s.maxSpanDays)

	switch {
	case plan.Mode == GenerationSkipped:
		s.logger.Info("跳过课次生成",
			zap.String("batch_id", batch.BatchID),
			zap.String("reason", plan.SkipReason),
		)
		return plan, nil
	case plan.Shortfall():
		metrics.SessionShortfalls.Inc()
		s.logger.Warn("日期范围内无法生成足够的课次",
			zap.String("batch_id", batch.BatchID),
			zap.String("pattern", batch.SchedulePattern),
			zap.Int("requested", plan.Requested),
			zap.Int("created", len(plan.Sessions)),
		)
	}

	for i := range plan.Sessions {
		plan.Sessions[i].BatchSessionID = uuid.NewString()
	}
	if err := tx.Session.BatchCreate(ctx, plan.Sessions); err != nil {
		return plan, err
	}
	metrics.SessionsGenerated.WithLabelValues(plan.Mode).Add(float64(len(plan.Sessions)))
	return plan, nil
}

// regenerate 删除班级全部课次后重新生成，必须在事务内调用
func (s *batchService) regenerate(ctx context.Context, tx *repository.Repository, batch *model.Batch) (SessionPlan, int64, error) {
	deleted, err := tx.Session.DeleteByBatch(ctx, batch.BatchID)
	if err != nil {
		return SessionPlan{}, 0, err
	}
	plan, err := s.generateSessions(ctx, tx, batch)
	if err != nil {
		return plan, deleted, err
	}
	metrics.SessionRegenerations.Inc()
	return plan, deleted, nil
}

func (s *batchService) afterRegenerate(ctx context.Context, batch *model.Batch, plan SessionPlan, deleted int64, callerID string) {
	s.recorder.Record(ctx, ActivityEntry{
		ActorID:     callerID,
		Action:      model.ActionRegenerate,
		SubjectType: model.SubjectBatch,
		SubjectID:   batch.BatchID,
		Description: fmt.Sprintf("重建班级「%s」课次：删除 %d 节，生成 %d 节", batch.Name, deleted, len(plan.Sessions)),
		Old:         map[string]interface{}{"session_count": deleted},
		New:         map[string]interface{}{"session_count": len(plan.Sessions), "mode": plan.Mode},
	})
	s.invalidateCalendar(ctx, batch.BatchID)
}

func (s *batchService) invalidateCalendar(ctx context.Context, batchID string) {
	if s.calendar != nil {
		s.calendar.Invalidate(ctx, batchID)
	}
}

// ── 内部辅助方法 ──

func (s *batchService) getBatch(ctx context.Context, repo *repository.Repository, id string) (*model.Batch, error) {
	batch, err := repo.Batch.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		s.logger.Error("查询班级失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return batch, nil
}

func (s *batchService) ensureVenue(ctx context.Context, venueID *string) error {
	if venueID == nil {
		return nil
	}
	if _, err := s.repo.Venue.GetByID(ctx, *venueID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVenueNotFound
		}
		s.logger.Error("查询场地失败", zap.String("venue_id", *venueID), zap.Error(err))
		return err
	}
	return nil
}

func (s *batchService) buildDetail(ctx context.Context, batch *model.Batch, gen *dto.GenerationSummary) (*dto.BatchResponse, error) {
	sessions, err := s.repo.Session.ListByBatch(ctx, batch.BatchID)
	if err != nil {
		s.logger.Error("查询课次失败", zap.String("batch_id", batch.BatchID), zap.Error(err))
		return nil, err
	}
	members, err := s.repo.Person.ListActiveByBatch(ctx, model.PersonTypeMember, batch.BatchID)
	if err != nil {
		s.logger.Error("查询班级学员失败", zap.String("batch_id", batch.BatchID), zap.Error(err))
		return nil, err
	}
	partners, err := s.repo.Person.ListActiveByBatch(ctx, model.PersonTypePartner, batch.BatchID)
	if err != nil {
		s.logger.Error("查询班级教练失败", zap.String("batch_id", batch.BatchID), zap.Error(err))
		return nil, err
	}

	resp := toBatchResponse(batch, members, partners)
	resp.Sessions = make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(&sessions[i]))
	}
	resp.Generation = gen
	return resp, nil
}

func summarize(plan SessionPlan, regenerated bool) *dto.GenerationSummary {
	sum := &dto.GenerationSummary{
		Regenerated: regenerated,
		Skipped:     plan.Mode == GenerationSkipped,
		Requested:   plan.Requested,
		Created:     len(plan.Sessions),
		Warning:     plan.Warning(),
	}
	return sum
}

func toBatchResponse(b *model.Batch, members, partners []model.AttendanceSubject) *dto.BatchResponse {
	resp := &dto.BatchResponse{
		ID:                   b.BatchID,
		Name:                 b.Name,
		Description:          b.Description,
		Type:                 b.Type,
		StartDate:            formatDatePtr(b.StartDate),
		EndDate:              formatDatePtr(b.EndDate),
		SessionStartTime:     b.SessionStartTime,
		SessionEndTime:       b.SessionEndTime,
		NoOfSessions:         b.NoOfSessions,
		SchedulePattern:      b.SchedulePattern,
		SelectedSessionDates: append([]string{}, b.SelectedSessionDates...),
		Status:               b.Status,
		Version:              b.Version,
		Members:              toPersonBriefs(members),
		Partners:             toPersonBriefs(partners),
		CreatedAt:            formatTimestamp(b.CreatedAt),
		UpdatedAt:            formatTimestamp(b.UpdatedAt),
	}
	if b.Venue != nil {
		resp.Venue = &dto.VenueBrief{ID: b.Venue.VenueID, Name: b.Venue.Name}
	}
	return resp
}

// ── 排课配置校验与归一化 ──

func parseDateField(errs fieldErrors, field string, raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	d, err := parseOptionalDate(*raw)
	if err != nil {
		errs.add(field, "日期格式应为 YYYY-MM-DD")
		return nil
	}
	return d
}

func normalizeClockField(errs fieldErrors, field, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	v, ok := dto.NormalizeClock(raw)
	if !ok {
		errs.add(field, "时间格式应为 HH:MM 或 HH:MM:SS")
		return ""
	}
	return v
}

// validateSchedule 校验排课配置；手动日期归一化为 Y-m-d 并去重，保留原顺序
func validateSchedule(b *model.Batch, errs fieldErrors) {
	if b.Type != model.BatchTypeFixed && b.Type != model.BatchTypeRecurring {
		errs.add("type", "班级类型只能是 fixed 或 recurring")
	}
	if !dto.IsSchedulePattern(b.SchedulePattern) {
		errs.add("schedule_pattern", "排课模式无效")
	}
	if b.StartDate != nil && b.EndDate != nil && b.EndDate.Before(*b.StartDate) {
		errs.add("end_date", "结束日期不能早于开始日期")
	}
	if b.SessionStartTime != "" && b.SessionEndTime != "" && b.SessionEndTime <= b.SessionStartTime {
		errs.add("session_end_time", "结束时间必须晚于开始时间")
	}

	if strings.ToUpper(b.SchedulePattern) != model.PatternManual {
		b.SelectedSessionDates = pq.StringArray{}
		return
	}

	seen := make(map[string]bool, len(b.SelectedSessionDates))
	dates := make([]string, 0, len(b.SelectedSessionDates))
	for _, raw := range b.SelectedSessionDates {
		d, err := model.ParseDate(strings.TrimSpace(raw))
		if err != nil {
			errs.add("selected_session_dates", "日期格式应为 YYYY-MM-DD")
			continue
		}
		if (b.StartDate != nil && d.Before(model.DateOf(*b.StartDate))) ||
			(b.EndDate != nil && d.After(model.DateOf(*b.EndDate))) {
			errs.add("selected_session_dates", fmt.Sprintf("日期 %s 不在班级起止日期范围内", formatDate(d)))
			continue
		}
		key := formatDate(d)
		if !seen[key] {
			seen[key] = true
			dates = append(dates, key)
		}
	}
	b.SelectedSessionDates = pq.StringArray(dates)
}

// scheduleKeys 排课字段的归一化字符串形式：日期 Y-m-d，时间 H:i:s，课次数为整数
func scheduleKeys(b *model.Batch) map[string]string {
	noOfSessions := 0
	if b.NoOfSessions != nil {
		noOfSessions = *b.NoOfSessions
	}
	start, end := "", ""
	if b.StartDate != nil {
		start = formatDate(*b.StartDate)
	}
	if b.EndDate != nil {
		end = formatDate(*b.EndDate)
	}
	return map[string]string{
		"start_date":             start,
		"end_date":               end,
		"session_start_time":     b.SessionStartTime,
		"session_end_time":       b.SessionEndTime,
		"no_of_sessions":         strconv.Itoa(noOfSessions),
		"schedule_pattern":       b.SchedulePattern,
		"type":                   b.Type,
		"selected_session_dates": strings.Join(b.SelectedSessionDates, ","),
	}
}

func batchSnapshot(b *model.Batch) map[string]interface{} {
	snap := map[string]interface{}{
		"name":                   b.Name,
		"description":            b.Description,
		"venue_id":               nil,
		"type":                   b.Type,
		"start_date":             nil,
		"end_date":               nil,
		"session_start_time":     b.SessionStartTime,
		"session_end_time":       b.SessionEndTime,
		"no_of_sessions":         nil,
		"schedule_pattern":       b.SchedulePattern,
		"selected_session_dates": append([]string{}, b.SelectedSessionDates...),
		"status":                 b.Status,
	}
	if b.VenueID != nil {
		snap["venue_id"] = *b.VenueID
	}
	if b.StartDate != nil {
		snap["start_date"] = formatDate(*b.StartDate)
	}
	if b.EndDate != nil {
		snap["end_date"] = formatDate(*b.EndDate)
	}
	if b.NoOfSessions != nil {
		snap["no_of_sessions"] = *b.NoOfSessions
	}
	return snap
}

// diffSnapshots 只保留新旧不同的键
func diffSnapshots(oldSnap, newSnap map[string]interface{}) (map[string]interface{}, map[string]interface{}) {
	oldValues := make(map[string]interface{})
	newValues := make(map[string]interface{})
	for k, nv := range newSnap {
		if ov := oldSnap[k]; !reflect.DeepEqual(ov, nv) {
			oldValues[k] = ov
			newValues[k] = nv
		}
	}
	return oldValues, newValues
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
