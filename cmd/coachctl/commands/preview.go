package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"coach-center/internal/dto"
	"coach-center/internal/model"
	"coach-center/internal/service"
)

// previewOptions preview-sessions 参数
type previewOptions struct {
	Start     string
	End       string
	Pattern   string
	Count     int
	Dates     []string
	StartTime string
	EndTime   string
	ICS       string
	Timezone  string
	MaxSpan   int
	Output    string
}

type previewSession struct {
	SequenceNo int    `yaml:"sequence_no"`
	Date       string `yaml:"date"`
	Weekday    string `yaml:"weekday"`
	StartTime  string `yaml:"start_time"`
	EndTime    string `yaml:"end_time"`
}

type previewResult struct {
	Mode      string           `yaml:"mode"`
	Requested int              `yaml:"requested"`
	Created   int              `yaml:"created"`
	Warning   string           `yaml:"warning,omitempty"`
	Sessions  []previewSession `yaml:"sessions"`
}

func newPreviewSessionsCmd() *cobra.Command {
	opts := &previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview-sessions",
		Short: "不连接数据库，预览排课配置将生成的课次",
		Example: `  coachctl preview-sessions --start 2025-01-06 --end 2025-01-31 --pattern MWF --count 12 --start-time 09:00 --end-time 10:30
  coachctl preview-sessions --start 2025-01-01 --count 5 --start-time 18:00 --end-time 19:00 --ics ./holidays.ics -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Start, "start", "", "开始日期 YYYY-MM-DD")
	f.StringVar(&opts.End, "end", "", "结束日期 YYYY-MM-DD（可选）")
	f.StringVar(&opts.Pattern, "pattern", "MWF", "排课模式：MWF / TTS / WEEKEND / DAILY / 星期名称 / MANUAL")
	f.IntVar(&opts.Count, "count", 0, "课次数")
	f.StringSliceVar(&opts.Dates, "dates", nil, "MANUAL 模式的上课日期，逗号分隔")
	f.StringVar(&opts.StartTime, "start-time", "", "上课开始时间 HH:MM[:SS]")
	f.StringVar(&opts.EndTime, "end-time", "", "上课结束时间 HH:MM[:SS]")
	f.StringVar(&opts.ICS, "ics", "", "从 .ics 文件或 http(s) URL 读取上课日期（按 MANUAL 生成）")
	f.StringVar(&opts.Timezone, "tz", "UTC", "解析 .ics 时使用的时区")
	f.IntVar(&opts.MaxSpan, "max-span-days", service.DefaultMaxSpanDays, "无结束日期时最多前进的天数")
	f.StringVarP(&opts.Output, "output", "o", "table", "输出格式：table / yaml")

	return cmd
}

func runPreview(ctx context.Context, opts *previewOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	batch, err := buildPreviewBatch(ctx, opts)
	if err != nil {
		return err
	}

	plan := service.PlanSessions(batch, opts.MaxSpan)
	result := previewResult{
		Mode:      plan.Mode,
		Requested: plan.Requested,
		Created:   len(plan.Sessions),
		Warning:   plan.Warning(),
		Sessions:  make([]previewSession, 0, len(plan.Sessions)),
	}
	for _, s := range plan.Sessions {
		result.Sessions = append(result.Sessions, previewSession{
			SequenceNo: s.SequenceNo,
			Date:       s.Date.Format(model.DateLayout),
			Weekday:    s.Date.Weekday().String(),
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
		})
	}

	switch opts.Output {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(result)
	case "table", "":
		return writePreviewTable(out, result)
	default:
		return fmt.Errorf("不支持的输出格式 %q", opts.Output)
	}
}

// buildPreviewBatch 将命令行参数转换为内存中的班级排课配置
func buildPreviewBatch(ctx context.Context, opts *previewOptions) (*model.Batch, error) {
	batch := &model.Batch{
		BatchID:         "preview",
		SchedulePattern: strings.ToUpper(strings.TrimSpace(opts.Pattern)),
	}
	if !dto.IsSchedulePattern(batch.SchedulePattern) {
		return nil, fmt.Errorf("排课模式 %q 无效", opts.Pattern)
	}

	if opts.Start != "" {
		d, err := model.ParseDate(opts.Start)
		if err != nil {
			return nil, fmt.Errorf("--start 格式应为 YYYY-MM-DD")
		}
		batch.StartDate = &d
	}
	if opts.End != "" {
		d, err := model.ParseDate(opts.End)
		if err != nil {
			return nil, fmt.Errorf("--end 格式应为 YYYY-MM-DD")
		}
		batch.EndDate = &d
	}
	if opts.Count > 0 {
		count := opts.Count
		batch.NoOfSessions = &count
	}

	for flag, raw := range map[string]string{"--start-time": opts.StartTime, "--end-time": opts.EndTime} {
		if raw == "" {
			continue
		}
		if _, ok := dto.NormalizeClock(raw); !ok {
			return nil, fmt.Errorf("%s 格式应为 HH:MM 或 HH:MM:SS", flag)
		}
	}
	batch.SessionStartTime, _ = dto.NormalizeClock(opts.StartTime)
	batch.SessionEndTime, _ = dto.NormalizeClock(opts.EndTime)

	dates := opts.Dates
	if opts.ICS != "" {
		icsDates, err := readICSDates(ctx, opts, batch)
		if err != nil {
			return nil, err
		}
		dates = append(dates, icsDates...)
		batch.SchedulePattern = model.PatternManual
	}
	batch.SelectedSessionDates = dates

	return batch, nil
}

func readICSDates(ctx context.Context, opts *previewOptions, batch *model.Batch) ([]string, error) {
	if batch.StartDate == nil {
		return nil, fmt.Errorf("使用 --ics 时必须指定 --start")
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("--tz %q 无效: %w", opts.Timezone, err)
	}

	var reader io.ReadCloser
	if isRemoteICS(opts.ICS) {
		reader, err = service.FetchICSContent(ctx, opts.ICS)
	} else {
		reader, err = os.Open(opts.ICS)
	}
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return service.ParseSessionDatesICS(reader, *batch.StartDate, batch.EndDate, loc)
}

func writePreviewTable(out io.Writer, result previewResult) error {
	printHeading("模式: %s  请求: %d  生成: %d", result.Mode, result.Requested, result.Created)
	if result.Warning != "" {
		printWarning("%s", result.Warning)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\t日期\t星期\t开始\t结束")
	for _, s := range result.Sessions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.SequenceNo, s.Date, s.Weekday, s.StartTime, s.EndTime)
	}
	return tw.Flush()
}

func isRemoteICS(src string) bool {
	for _, prefix := range []string{"http://", "https://", "webcal://"} {
		if strings.HasPrefix(src, prefix) {
			return true
		}
	}
	return false
}
