package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func basePreviewOptions() *previewOptions {
	return &previewOptions{
		Start:     "2025-01-06",
		End:       "2025-01-31",
		Pattern:   "mwf",
		Count:     12,
		StartTime: "09:00",
		EndTime:   "10:30",
		MaxSpan:   730,
		Timezone:  "UTC",
		Output:    "yaml",
	}
}

func decodePreview(t *testing.T, out *bytes.Buffer) previewResult {
	t.Helper()
	var res previewResult
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &res))
	return res
}

func TestRunPreview_PatternYAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runPreview(context.Background(), basePreviewOptions(), &out))

	res := decodePreview(t, &out)
	assert.Equal(t, "pattern", res.Mode)
	assert.Equal(t, 12, res.Created)
	assert.Empty(t, res.Warning)
	require.Len(t, res.Sessions, 12)
	assert.Equal(t, "2025-01-06", res.Sessions[0].Date)
	assert.Equal(t, "09:00:00", res.Sessions[0].StartTime)
	assert.Equal(t, "2025-01-31", res.Sessions[11].Date)
}

func TestRunPreview_ShortfallWarning(t *testing.T) {
	opts := basePreviewOptions()
	opts.End = "2025-01-10"

	var out bytes.Buffer
	require.NoError(t, runPreview(context.Background(), opts, &out))

	res := decodePreview(t, &out)
	assert.Equal(t, 3, res.Created)
	assert.Contains(t, res.Warning, "3")
}

func TestRunPreview_ManualDates(t *testing.T) {
	opts := basePreviewOptions()
	opts.Pattern = "manual"
	opts.Dates = []string{"2025-01-07", "2025-01-09"}

	var out bytes.Buffer
	require.NoError(t, runPreview(context.Background(), opts, &out))

	res := decodePreview(t, &out)
	assert.Equal(t, "manual", res.Mode)
	require.Len(t, res.Sessions, 2)
	assert.Equal(t, "Thursday", res.Sessions[1].Weekday)
}

func TestRunPreview_ICSFile(t *testing.T) {
	ics := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:evt-1",
		"DTSTAMP:20250101T000000Z",
		"DTSTART:20250106T090000Z",
		"DTEND:20250106T103000Z",
		"RRULE:FREQ=WEEKLY;COUNT=3",
		"SUMMARY:Training",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")
	path := filepath.Join(t.TempDir(), "sessions.ics")
	require.NoError(t, os.WriteFile(path, []byte(ics), 0o600))

	opts := basePreviewOptions()
	opts.ICS = path

	var out bytes.Buffer
	require.NoError(t, runPreview(context.Background(), opts, &out))

	res := decodePreview(t, &out)
	assert.Equal(t, "manual", res.Mode)
	dates := make([]string, 0, len(res.Sessions))
	for _, s := range res.Sessions {
		dates = append(dates, s.Date)
	}
	assert.Equal(t, []string{"2025-01-06", "2025-01-13", "2025-01-20"}, dates)
}

func TestRunPreview_InvalidInput(t *testing.T) {
	cases := map[string]func(o *previewOptions){
		"未知模式":   func(o *previewOptions) { o.Pattern = "fortnightly" },
		"日期格式":   func(o *previewOptions) { o.Start = "06/01/2025" },
		"时间格式":   func(o *previewOptions) { o.EndTime = "25:99" },
		"输出格式":   func(o *previewOptions) { o.Output = "xml" },
		"ics无开始": func(o *previewOptions) { o.Start = ""; o.ICS = "missing.ics" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opts := basePreviewOptions()
			mutate(opts)
			assert.Error(t, runPreview(context.Background(), opts, &bytes.Buffer{}))
		})
	}
}

func TestRunPreview_Table(t *testing.T) {
	opts := basePreviewOptions()
	opts.Output = "table"
	opts.Count = 2

	var out bytes.Buffer
	require.NoError(t, runPreview(context.Background(), opts, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "2025-01-06")
	assert.Contains(t, lines[2], "Wednesday")
}
