package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"coach-center/config"
	"coach-center/internal/dto"
	"coach-center/internal/model"
)

// ── 测试辅助 ──

func setupTestBatchService() (BatchService, *mockRepos, *recordingInvalidator) {
	m := newMockRepos()
	inv := &recordingInvalidator{}
	logger := zap.NewNop()
	activity := NewActivityLogService(m.repo, logger)
	svc := NewBatchService(&config.AppConfig{MaxScheduleSpanDays: DefaultMaxSpanDays}, m.repo, activity, inv, logger)
	return svc, m, inv
}

func strp(s string) *string { return &s }

func januaryMWFRequest() *dto.CreateBatchRequest {
	return &dto.CreateBatchRequest{
		Name:             "Morning Squad",
		Type:             model.BatchTypeFixed,
		StartDate:        strp("2025-01-01"),
		EndDate:          strp("2025-01-31"),
		SessionStartTime: "09:00",
		SessionEndTime:   "10:00",
		NoOfSessions:     intPtr(10),
		SchedulePattern:  "MWF",
	}
}

func sessionIDs(m *mockRepos, batchID string) map[string]bool {
	ids := make(map[string]bool)
	sessions, _ := m.sessions.ListByBatch(context.Background(), batchID)
	for _, s := range sessions {
		ids[s.BatchSessionID] = true
	}
	return ids
}

// ── Create 测试 ──

func TestBatchService_Create_GeneratesSessions(t *testing.T) {
	svc, m, _ := setupTestBatchService()

	result, err := svc.Create(context.Background(), januaryMWFRequest(), "coach-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if len(result.Sessions) != 10 {
		t.Fatalf("期望 10 节课，实际 %d", len(result.Sessions))
	}
	if result.Sessions[0].Date != "2025-01-01" || result.Sessions[9].Date != "2025-01-22" {
		t.Errorf("课次日期不符: 首节 %s，末节 %s", result.Sessions[0].Date, result.Sessions[9].Date)
	}
	if result.SessionStartTime != "09:00:00" {
		t.Errorf("期望开始时间归一化为 09:00:00，实际=%s", result.SessionStartTime)
	}
	if result.Generation == nil || result.Generation.Created != 10 || result.Generation.Regenerated {
		t.Errorf("生成摘要不符: %+v", result.Generation)
	}
	if result.Status != model.BatchStatusActive {
		t.Errorf("期望默认状态 active，实际=%s", result.Status)
	}
	if got := m.logs.actions(); len(got) != 1 || got[0] != model.ActionCreate {
		t.Errorf("期望写入一条 create 日志，实际=%v", got)
	}
}

func TestBatchService_Create_ShortfallWarning(t *testing.T) {
	svc, _, _ := setupTestBatchService()

	req := januaryMWFRequest()
	req.EndDate = strp("2025-01-05")

	result, err := svc.Create(context.Background(), req, "coach-001")
	if err != nil {
		t.Fatalf("课次不足不应导致失败: %v", err)
	}
	if result.Generation.Created != 2 {
		t.Errorf("期望生成 2 节，实际 %d", result.Generation.Created)
	}
	if result.Generation.Warning == "" {
		t.Error("期望返回课次不足提示")
	}
}

func TestBatchService_Create_EndBeforeStart(t *testing.T) {
	svc, m, _ := setupTestBatchService()

	req := januaryMWFRequest()
	req.EndDate = strp("2024-12-01")

	_, err := svc.Create(context.Background(), req, "coach-001")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("期望 ValidationError，实际: %v", err)
	}
	if _, ok := verr.Fields["end_date"]; !ok {
		t.Errorf("期望 end_date 字段错误，实际=%v", verr.Fields)
	}
	if len(m.batches.batches) != 0 {
		t.Error("校验失败时不应写入班级")
	}
}

func TestBatchService_Create_ManualDateOutOfRange(t *testing.T) {
	svc, _, _ := setupTestBatchService()

	req := januaryMWFRequest()
	req.SchedulePattern = "manual"
	req.SelectedSessionDates = []string{"2025-01-02", "2025-02-15"}

	_, err := svc.Create(context.Background(), req, "coach-001")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("期望 ValidationError，实际: %v", err)
	}
	if _, ok := verr.Fields["selected_session_dates"]; !ok {
		t.Errorf("期望 selected_session_dates 字段错误，实际=%v", verr.Fields)
	}
}

func TestBatchService_Create_ManualDedupesDates(t *testing.T) {
	svc, _, _ := setupTestBatchService()

	req := januaryMWFRequest()
	req.SchedulePattern = "manual"
	req.SelectedSessionDates = []string{"2025-01-10", "2025-01-02", "2025-01-10"}

	result, err := svc.Create(context.Background(), req, "coach-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if len(result.SelectedSessionDates) != 2 {
		t.Errorf("期望去重后 2 个日期，实际=%v", result.SelectedSessionDates)
	}
	if len(result.Sessions) != 2 {
		t.Errorf("期望 2 节课，实际 %d", len(result.Sessions))
	}
}

func TestBatchService_Create_UnknownRosterPerson(t *testing.T) {
	svc, _, _ := setupTestBatchService()

	req := januaryMWFRequest()
	req.MemberIDs = []string{"member-404"}

	_, err := svc.Create(context.Background(), req, "coach-001")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("期望 ValidationError，实际: %v", err)
	}
	if verr.Fields["member_ids"] != ErrRosterPersonMissing.Error() {
		t.Errorf("期望 member_ids 字段错误，实际=%v", verr.Fields)
	}
}

func TestBatchService_Create_VenueNotFound(t *testing.T) {
	svc, _, _ := setupTestBatchService()

	req := januaryMWFRequest()
	req.VenueID = strp("venue-404")

	_, err := svc.Create(context.Background(), req, "coach-001")
	if !errors.Is(err, ErrVenueNotFound) {
		t.Errorf("期望 ErrVenueNotFound，实际: %v", err)
	}
}

func TestBatchService_Create_WithRoster(t *testing.T) {
	svc, m, _ := setupTestBatchService()
	alice := m.persons.seed(model.PersonTypeMember, "Alice", nil)
	bob := m.persons.seed(model.PersonTypeMember, "Bob", nil)
	coach := m.persons.seed(model.PersonTypePartner, "Coach Lee", nil)

	req := januaryMWFRequest()
	req.MemberIDs = []string{bob, alice, bob}
	req.PartnerIDs = []string{coach}

	result, err := svc.Create(context.Background(), req, "coach-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if len(result.Members) != 2 || result.Members[0].Name != "Alice" {
		t.Errorf("期望学员按姓名排序且去重，实际=%+v", result.Members)
	}
	if len(result.Partners) != 1 {
		t.Errorf("期望 1 名教练，实际 %d", len(result.Partners))
	}
}

// ── Update 测试 ──

func TestBatchService_Update_SessionCountTriggersRegeneration(t *testing.T) {
	svc, m, inv := setupTestBatchService()
	created, err := svc.Create(context.Background(), januaryMWFRequest(), "coach-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	before := sessionIDs(m, created.ID)

	result, err := svc.Update(context.Background(), created.ID, &dto.UpdateBatchRequest{NoOfSessions: intPtr(8)}, "coach-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}

	if n := m.sessions.countByBatch(created.ID); n != 8 {
		t.Fatalf("期望重建为 8 节课，实际 %d", n)
	}
	for id := range sessionIDs(m, created.ID) {
		if before[id] {
			t.Errorf("旧课次 %s 应已删除", id)
		}
	}
	if result.Generation == nil || !result.Generation.Regenerated {
		t.Errorf("期望返回重建摘要，实际=%+v", result.Generation)
	}
	if len(inv.invalidated) != 1 || inv.invalidated[0] != created.ID {
		t.Errorf("期望清理日历缓存，实际=%v", inv.invalidated)
	}
	if result.Version != 2 {
		t.Errorf("期望版本号递增为 2，实际=%d", result.Version)
	}
}

func TestBatchService_Update_UnrelatedFieldKeepsSessions(t *testing.T) {
	svc, m, inv := setupTestBatchService()
	created, _ := svc.Create(context.Background(), januaryMWFRequest(), "coach-001")
	before := sessionIDs(m, created.ID)

	result, err := svc.Update(context.Background(), created.ID, &dto.UpdateBatchRequest{Description: strp("新的说明")}, "coach-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}

	after := sessionIDs(m, created.ID)
	if len(after) != len(before) {
		t.Fatalf("课次数量不应变化: %d → %d", len(before), len(after))
	}
	for id := range before {
		if !after[id] {
			t.Errorf("课次 %s 不应被删除", id)
		}
	}
	if result.Generation != nil {
		t.Errorf("不应触发重建，实际=%+v", result.Generation)
	}
	if len(inv.invalidated) != 0 {
		t.Errorf("不应清理日历缓存，实际=%v", inv.invalidated)
	}
}

func TestBatchService_Update_EquivalentValuesDoNotRegenerate(t *testing.T) {
	svc, m, _ := setupTestBatchService()
	created, _ := svc.Create(context.Background(), januaryMWFRequest(), "coach-001")
	before := sessionIDs(m, created.ID)

	// 09:00 与已存储的 09:00:00 归一化后相同
	req := &dto.UpdateBatchRequest{
		SessionStartTime: strp("09:00"),
		StartDate:        strp("2025-01-01"),
		NoOfSessions:     intPtr(10),
	}
	if _, err := svc.Update(context.Background(), created.ID, req, "coach-001"); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}

	for id := range sessionIDs(m, created.ID) {
		if !before[id] {
			t.Fatalf("归一化后未变化的字段不应触发重建")
		}
	}
}

func TestBatchService_Update_ClearEndDateExtendsSchedule(t *testing.T) {
	svc, m, _ := setupTestBatchService()
	req := januaryMWFRequest()
	req.EndDate = strp("2025-01-05")
	created, _ := svc.Create(context.Background(), req, "coach-001")

	if _, err := svc.Update(context.Background(), created.ID, &dto.UpdateBatchRequest{EndDate: strp("")}, "coach-001"); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if n := m.sessions.countByBatch(created.ID); n != 10 {
		t.Errorf("清空结束日期后期望 10 节课，实际 %d", n)
	}
}

func TestBatchService_Update_NotFound(t *testing.T) {
	svc, _, _ := setupTestBatchService()

	_, err := svc.Update(context.Background(), "batch-404", &dto.UpdateBatchRequest{Name: strp("x")}, "coach-001")
	if !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("期望 ErrBatchNotFound，实际: %v", err)
	}
}

// ── RegenerateSessions / Delete / List 测试 ──

func TestBatchService_RegenerateSessions(t *testing.T) {
	svc, m, _ := setupTestBatchService()
	created, _ := svc.Create(context.Background(), januaryMWFRequest(), "coach-001")
	before := sessionIDs(m, created.ID)

	result, err := svc.RegenerateSessions(context.Background(), created.ID, "coach-001")
	if err != nil {
		t.Fatalf("RegenerateSessions 应成功: %v", err)
	}
	if len(result.Sessions) != 10 {
		t.Errorf("期望 10 节课，实际 %d", len(result.Sessions))
	}
	for id := range sessionIDs(m, created.ID) {
		if before[id] {
			t.Errorf("旧课次 %s 应已删除", id)
		}
	}
	actions := m.logs.actions()
	if actions[len(actions)-1] != model.ActionRegenerate {
		t.Errorf("期望最后一条日志为 regenerate，实际=%v", actions)
	}
}

func TestBatchService_RegenerateSessions_NotFound(t *testing.T) {
	svc, _, _ := setupTestBatchService()

	_, err := svc.RegenerateSessions(context.Background(), "batch-404", "coach-001")
	if !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("期望 ErrBatchNotFound，实际: %v", err)
	}
}

func TestBatchService_Delete_RemovesSessions(t *testing.T) {
	svc, m, _ := setupTestBatchService()
	created, _ := svc.Create(context.Background(), januaryMWFRequest(), "coach-001")

	if err := svc.Delete(context.Background(), created.ID, "coach-001"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if n := m.sessions.countByBatch(created.ID); n != 0 {
		t.Errorf("期望课次被删除，剩余 %d", n)
	}
	if _, err := svc.GetByID(context.Background(), created.ID); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("期望 ErrBatchNotFound，实际: %v", err)
	}
}

func TestBatchService_List_EmbedsActiveRoster(t *testing.T) {
	svc, m, _ := setupTestBatchService()
	active := m.persons.seed(model.PersonTypeMember, "Active", nil)
	inactive := m.persons.seed(model.PersonTypeMember, "Inactive", nil)
	m.persons.people[model.PersonTypeMember][inactive].Profile().Status = model.PersonStatusInactive

	req := januaryMWFRequest()
	req.MemberIDs = []string{active, inactive}
	if _, err := svc.Create(context.Background(), req, "coach-001"); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	list, total, err := svc.List(context.Background(), &dto.BatchListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("期望 1 个班级，实际 %d", len(list))
	}
	if len(list[0].Members) != 1 || list[0].Members[0].ID != active {
		t.Errorf("期望只嵌入 active 学员，实际=%+v", list[0].Members)
	}
	if list[0].Sessions != nil {
		t.Error("列表不应包含课次")
	}
}
