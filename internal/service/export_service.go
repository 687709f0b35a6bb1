package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"coach-center/internal/model"
	"coach-center/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 考勤花名册：行为班级 active 人员，列为课次日期。
// 导出是纯读操作，不补建考勤行；缺失的过去课次显示 not marked，未来课次显示 "-"。
type ExportService interface {
	// ExportAttendance 导出班级考勤为 Excel，返回内容与建议文件名
	ExportAttendance(ctx context.Context, batchID string, pt model.PersonType) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	clock  Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, clock Clock, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, clock: clock, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportAttendance
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：班级名称 + 类型
//   - 表头：姓名 | 邮箱 | 各课次日期 | 出勤 | 缺勤 | 请假 | 出勤率
//   - 出勤率 = present / 已过课次数

func (s *exportService) ExportAttendance(ctx context.Context, batchID string, pt model.PersonType) (*bytes.Buffer, string, error) {
	batch, err := getBatchForAttendance(ctx, s.repo, batchID)
	if err != nil {
		if !errors.Is(err, ErrBatchNotFound) {
			s.logger.Error("查询班级失败", zap.String("batch_id", batchID), zap.Error(err))
		}
		return nil, "", err
	}

	persons, err := s.repo.Person.ListActiveByBatch(ctx, pt, batchID)
	if err != nil {
		s.logger.Error("查询班级名单失败", zap.Error(err))
		return nil, "", err
	}
	sessions, err := s.repo.Session.ListByBatch(ctx, batchID)
	if err != nil {
		s.logger.Error("查询课次失败", zap.Error(err))
		return nil, "", err
	}
	if len(persons) == 0 || len(sessions) == 0 {
		return nil, "", ErrNoAttendanceData
	}

	today := Today(s.clock)
	pastIDs := make([]string, 0, len(sessions))
	for i := range sessions {
		if !sessions[i].Date.After(today) {
			pastIDs = append(pastIDs, sessions[i].BatchSessionID)
		}
	}
	var records map[string]*model.AttendanceRecord
	if len(pastIDs) > 0 {
		existing, err := s.repo.Attendance.ListBySessions(ctx, pt, pastIDs)
		if err != nil {
			s.logger.Error("查询考勤失败", zap.Error(err))
			return nil, "", err
		}
		records = indexRecords(existing)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "考勤"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列：姓名、邮箱、N 个课次、4 个汇总列
	dateCols := len(sessions)
	totalCols := 2 + dateCols + 4

	f.SetColWidth(sheetName, "A", "A", 16)
	f.SetColWidth(sheetName, "B", "B", 26)
	if dateCols > 0 {
		f.SetColWidth(sheetName, colName(2), colName(1+dateCols), 12)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	centerStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s %s考勤", batch.Name, personLabel(pt)))
	f.MergeCell(sheetName, "A1", cell(colName(totalCols-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "姓名")
	f.SetCellValue(sheetName, cell("B", row), "邮箱")
	for i := range sessions {
		f.SetCellValue(sheetName, cell(colName(2+i), row), formatDate(sessions[i].Date))
	}
	summaryHeaders := []string{"出勤", "缺勤", "请假", "出勤率"}
	for i, h := range summaryHeaders {
		f.SetCellValue(sheetName, cell(colName(2+dateCols+i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(totalCols-1), row), headerStyle)

	// 数据行
	row = 3
	for _, p := range persons {
		prof := p.Profile()
		f.SetCellValue(sheetName, cell("A", row), prof.Name)
		f.SetCellValue(sheetName, cell("B", row), prof.Email)

		var present, absent, excused, past int
		for i := range sessions {
			sess := &sessions[i]
			text := "-"
			if !sess.Date.After(today) {
				past++
				status := model.AttendanceNotMarked
				if rec := records[recordKey(sess.BatchSessionID, p.SubjectID())]; rec != nil {
					status = rec.Status
				}
				switch status {
				case model.AttendancePresent:
					present++
				case model.AttendanceAbsent:
					absent++
				case model.AttendanceExcused:
					excused++
				}
				text = humanizeStatus(status)
			}
			f.SetCellValue(sheetName, cell(colName(2+i), row), text)
		}

		rate := "-"
		if past > 0 {
			rate = fmt.Sprintf("%.0f%%", float64(present)*100/float64(past))
		}
		f.SetCellValue(sheetName, cell(colName(2+dateCols), row), present)
		f.SetCellValue(sheetName, cell(colName(3+dateCols), row), absent)
		f.SetCellValue(sheetName, cell(colName(4+dateCols), row), excused)
		f.SetCellValue(sheetName, cell(colName(5+dateCols), row), rate)
		row++
	}
	f.SetCellStyle(sheetName, cell(colName(2), 3), cell(colName(totalCols-1), row-1), centerStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("考勤_%s_%s.xlsx", strings.ReplaceAll(batch.Name, " ", "_"), pt)
	return buf, filename, nil
}

// ── 辅助函数 ──

// colName 0-based 列序号 → 列名（0 → A）
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
