package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func newTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterValidators(v); err != nil {
		t.Fatalf("注册校验器失败: %v", err)
	}
	return v
}

func TestNormalizeClock(t *testing.T) {
	cases := map[string]string{
		"09:00":    "09:00:00",
		"09:00:30": "09:00:30",
		" 7:05 ":   "07:05:00",
	}
	for in, want := range cases {
		got, ok := NormalizeClock(in)
		if !ok || got != want {
			t.Errorf("NormalizeClock(%q) 期望 %q，实际 %q (ok=%v)", in, want, got, ok)
		}
	}

	for _, bad := range []string{"", "25:00", "9am", "09:60"} {
		if _, ok := NormalizeClock(bad); ok {
			t.Errorf("NormalizeClock(%q) 应失败", bad)
		}
	}
}

func TestIsSchedulePattern(t *testing.T) {
	for _, ok := range []string{"MWF", "mwf", "Weekend", "daily", "manual", "Monday", "sunday"} {
		if !IsSchedulePattern(ok) {
			t.Errorf("%q 应为合法排课模式", ok)
		}
	}
	for _, bad := range []string{"", "MW", "weekly", "Mon"} {
		if IsSchedulePattern(bad) {
			t.Errorf("%q 不应为合法排课模式", bad)
		}
	}
}

func TestMarkAttendanceRequestValidation(t *testing.T) {
	v := newTestValidator(t)

	req := MarkAttendanceRequest{
		Type:     "member",
		PersonID: "7b0d5c53-8f5e-4c0a-9f39-3b8a0f4a1c11",
		BatchID:  "0c6a0c3e-5c1f-4d7b-8d6e-2f5e0b9a7d22",
		Date:     "2025-06-05",
		Status:   "not marked",
	}
	if err := v.Struct(req); err != nil {
		t.Fatalf("合法请求不应报错: %v", err)
	}

	req.Status = "late"
	if err := v.Struct(req); err == nil {
		t.Error("非法 status 应校验失败")
	}

	req.Status = "present"
	req.Date = "05/06/2025"
	if err := v.Struct(req); err == nil {
		t.Error("非法日期格式应校验失败")
	}
}

func TestCreateBatchRequestValidation(t *testing.T) {
	v := newTestValidator(t)

	start := "2025-01-01"
	req := CreateBatchRequest{
		Name:                 "周末少儿班",
		Type:                 "recurring",
		StartDate:            &start,
		SessionStartTime:     "09:00",
		SessionEndTime:       "10:00:00",
		SchedulePattern:      "manual",
		SelectedSessionDates: []string{"2025-01-04", "2025-01-05"},
	}
	if err := v.Struct(req); err != nil {
		t.Fatalf("合法请求不应报错: %v", err)
	}

	req.SelectedSessionDates = []string{"2025-13-01"}
	if err := v.Struct(req); err == nil {
		t.Error("非法的手动日期应校验失败")
	}
}
