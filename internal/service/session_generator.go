package service

import (
	"fmt"
	"strings"
	"time"

	"coach-center/internal/model"
)

// DefaultMaxSpanDays 无结束日期时逐日前进的默认上限
const DefaultMaxSpanDays = 730

// 生成模式
const (
	GenerationSkipped = "skipped"
	GenerationManual  = "manual"
	GenerationPattern = "pattern"
)

// SessionPlan 一次课次生成的结果
type SessionPlan struct {
	Mode       string
	Requested  int
	SkipReason string
	Sessions   []model.BatchSession
}

// Shortfall 按模式生成时日期范围耗尽、未达到请求数量
func (p SessionPlan) Shortfall() bool {
	return p.Mode == GenerationPattern && len(p.Sessions) < p.Requested
}

// Warning 跳过原因或数量不足提示；正常生成时为空
func (p SessionPlan) Warning() string {
	switch {
	case p.Mode == GenerationSkipped:
		return p.SkipReason
	case p.Shortfall():
		return fmt.Sprintf("日期范围内仅能生成 %d 节课（请求 %d 节）", len(p.Sessions), p.Requested)
	}
	return ""
}

// PlanSessions 根据班级排课配置计算课次列表（不落库）
//
// 前置条件不满足（无开始日期、课次数为空或 ≤0、起止时间为空）时跳过。
// manual 模式按 selected_session_dates 逐一生成，不再进入按模式生成。
// 其余模式从 start_date 起逐日前进，命中模式的日期生成一节课，
// 达到 no_of_sessions 或越过 end_date 即停止；无 end_date 时最多前进 maxSpanDays 天。
func PlanSessions(batch *model.Batch, maxSpanDays int) SessionPlan {
	plan := SessionPlan{Mode: GenerationSkipped}

	switch {
	case batch.StartDate == nil:
		plan.SkipReason = "未设置开始日期"
		return plan
	case batch.NoOfSessions == nil || *batch.NoOfSessions <= 0:
		plan.SkipReason = "课次数未设置或不大于 0"
		return plan
	case strings.TrimSpace(batch.SessionStartTime) == "" || strings.TrimSpace(batch.SessionEndTime) == "":
		plan.SkipReason = "未设置上课起止时间"
		return plan
	}

	plan.Requested = *batch.NoOfSessions
	pattern := strings.ToUpper(strings.TrimSpace(batch.SchedulePattern))

	if pattern == model.PatternManual {
		plan.Mode = GenerationManual
		for _, raw := range batch.SelectedSessionDates {
			d, err := model.ParseDate(raw)
			if err != nil {
				continue
			}
			plan.Sessions = append(plan.Sessions, newPlannedSession(batch, len(plan.Sessions)+1, d))
		}
		return plan
	}

	plan.Mode = GenerationPattern
	start := model.DateOf(*batch.StartDate)

	var last time.Time
	if batch.EndDate != nil {
		last = model.DateOf(*batch.EndDate)
	} else {
		if maxSpanDays <= 0 {
			maxSpanDays = DefaultMaxSpanDays
		}
		last = start.AddDate(0, 0, maxSpanDays-1)
	}

	for d := start; len(plan.Sessions) < plan.Requested && !d.After(last); d = d.AddDate(0, 0, 1) {
		if matchesPattern(pattern, d.Weekday()) {
			plan.Sessions = append(plan.Sessions, newPlannedSession(batch, len(plan.Sessions)+1, d))
		}
	}
	return plan
}

// matchesPattern 判断某星期是否命中排课模式；pattern 已转为大写
func matchesPattern(pattern string, wd time.Weekday) bool {
	switch pattern {
	case model.PatternMWF:
		return wd == time.Monday || wd == time.Wednesday || wd == time.Friday
	case model.PatternTTS:
		return wd == time.Tuesday || wd == time.Thursday || wd == time.Saturday
	case model.PatternWeekend:
		return wd == time.Saturday || wd == time.Sunday
	case model.PatternDaily:
		return true
	default:
		return strings.ToUpper(wd.String()) == pattern
	}
}

func newPlannedSession(batch *model.Batch, seq int, date time.Time) model.BatchSession {
	return model.BatchSession{
		BatchID:    batch.BatchID,
		SequenceNo: seq,
		Date:       date,
		StartTime:  batch.SessionStartTime,
		EndTime:    batch.SessionEndTime,
		Status:     model.SessionStatusScheduled,
	}
}
