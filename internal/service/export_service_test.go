package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"coach-center/internal/model"
)

// ── ExportAttendance 测试 ──

func TestExportService_ExportAttendance(t *testing.T) {
	f := setupAttendanceFixture(t)
	if _, err := f.mark(model.PersonTypeMember, f.alice, "2025-06-01", model.AttendancePresent); err != nil {
		t.Fatalf("Mark 应成功: %v", err)
	}
	svc := NewExportService(f.m.repo, clockAt("2025-06-05"), zap.NewNop())

	buf, filename, err := svc.ExportAttendance(context.Background(), f.batchID, model.PersonTypeMember)
	if err != nil {
		t.Fatalf("ExportAttendance 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") || !strings.Contains(filename, "Evening_Squad") {
		t.Errorf("文件名不符: %s", filename)
	}

	book, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}
	defer book.Close()

	want := map[string]string{
		"A2": "姓名",
		"C2": "2025-06-01",
		"E2": "2025-06-10",
		"A3": "Alice",
		"C3": "Present",
		"D3": "Not Marked",
		"E3": "-",
		"F3": "1",
		"I3": "50%",
		"A4": "Bob",
		"C4": "Not Marked",
	}
	for cellName, expected := range want {
		got, err := book.GetCellValue("考勤", cellName)
		if err != nil {
			t.Fatalf("读取单元格 %s 失败: %v", cellName, err)
		}
		if got != expected {
			t.Errorf("%s 期望 %q，实际 %q", cellName, expected, got)
		}
	}

	if n := f.m.attendance.count(model.PersonTypeMember); n != 1 {
		t.Errorf("导出不应补建考勤记录，实际 %d 条", n)
	}
}

func TestExportService_ExportAttendance_NoData(t *testing.T) {
	f := setupAttendanceFixture(t)
	svc := NewExportService(f.m.repo, clockAt("2025-06-05"), zap.NewNop())

	_, _ = f.m.sessions.DeleteByBatch(context.Background(), f.batchID)
	if _, _, err := svc.ExportAttendance(context.Background(), f.batchID, model.PersonTypeMember); !errors.Is(err, ErrNoAttendanceData) {
		t.Errorf("期望 ErrNoAttendanceData，实际: %v", err)
	}
	if _, _, err := svc.ExportAttendance(context.Background(), "batch-404", model.PersonTypeMember); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("期望 ErrBatchNotFound，实际: %v", err)
	}
}

func TestColName(t *testing.T) {
	cases := map[int]string{0: "A", 2: "C", 25: "Z", 26: "AA"}
	for idx, want := range cases {
		if got := colName(idx); got != want {
			t.Errorf("colName(%d) 期望 %s，实际 %s", idx, want, got)
		}
	}
}
