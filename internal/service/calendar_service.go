package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coach-center/internal/model"
	"coach-center/internal/repository"
	"coach-center/pkg/redis"
)

const (
	calendarCacheTTL    = 5 * time.Minute
	calendarProductID   = "-//coach-center//batch sessions//ZH"
	icsMaxFileSize      = 5 * 1024 * 1024
	icsFetchTimeout     = 30 * time.Second
	icsMaxExpandedDates = 1000
)

// CalendarInvalidator 课次变化后清理日历缓存
type CalendarInvalidator interface {
	Invalidate(ctx context.Context, batchID string)
}

// CalendarService 班级课次日历（iCalendar）
type CalendarService interface {
	CalendarInvalidator
	// BatchCalendar 返回 .ics 内容与建议文件名
	BatchCalendar(ctx context.Context, batchID string) ([]byte, string, error)
}

type calendarService struct {
	repo   *repository.Repository
	cache  *redis.Client
	loc    *time.Location
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例；cache 为 nil 时不缓存
func NewCalendarService(repo *repository.Repository, cache *redis.Client, loc *time.Location, logger *zap.Logger) CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &calendarService{repo: repo, cache: cache, loc: loc, logger: logger}
}

func calendarCacheKey(batchID string) string {
	return "calendar:" + batchID
}

func (s *calendarService) BatchCalendar(ctx context.Context, batchID string) ([]byte, string, error) {
	batch, err := s.repo.Batch.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrBatchNotFound
		}
		s.logger.Error("查询班级失败", zap.String("id", batchID), zap.Error(err))
		return nil, "", err
	}
	filename := fmt.Sprintf("%s.ics", strings.ReplaceAll(batch.Name, " ", "_"))

	if s.cache != nil {
		if data, ok, err := s.cache.GetCache(ctx, calendarCacheKey(batchID)); err != nil {
			s.logger.Warn("读取日历缓存失败", zap.String("batch_id", batchID), zap.Error(err))
		} else if ok {
			return data, filename, nil
		}
	}

	sessions, err := s.repo.Session.ListByBatch(ctx, batchID)
	if err != nil {
		s.logger.Error("查询课次失败", zap.String("batch_id", batchID), zap.Error(err))
		return nil, "", err
	}

	data := []byte(BuildSessionCalendar(batch, sessions, s.loc))

	if s.cache != nil {
		if err := s.cache.SetCache(ctx, calendarCacheKey(batchID), data, calendarCacheTTL); err != nil {
			s.logger.Warn("写入日历缓存失败", zap.String("batch_id", batchID), zap.Error(err))
		}
	}
	return data, filename, nil
}

func (s *calendarService) Invalidate(ctx context.Context, batchID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteCache(ctx, calendarCacheKey(batchID)); err != nil {
		s.logger.Warn("清理日历缓存失败", zap.String("batch_id", batchID), zap.Error(err))
	}
}

// BuildSessionCalendar 将课次列表序列化为 iCalendar；课次时间按 loc 解释
func BuildSessionCalendar(batch *model.Batch, sessions []model.BatchSession, loc *time.Location) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(batch.Name)
	cal.SetXWRTimezone(loc.String())

	venue := ""
	if batch.Venue != nil {
		venue = batch.Venue.Name
	}

	for i := range sessions {
		sess := &sessions[i]
		start, err1 := sessionInstant(sess.Date, sess.StartTime, loc)
		end, err2 := sessionInstant(sess.Date, sess.EndTime, loc)
		if err1 != nil || err2 != nil {
			continue
		}

		event := cal.AddEvent(sess.BatchSessionID + "@coach-center")
		event.SetDtStampTime(sess.UpdatedAt)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(fmt.Sprintf("%s 第 %d 节", batch.Name, sess.SequenceNo))
		if venue != "" {
			event.SetLocation(venue)
		}
		if sess.Notes != nil && *sess.Notes != "" {
			event.SetDescription(*sess.Notes)
		}
		if sess.Status == model.SessionStatusCancelled {
			event.SetStatus(ics.ObjectStatusCancelled)
		} else {
			event.SetStatus(ics.ObjectStatusConfirmed)
		}
	}
	return cal.Serialize()
}

func sessionInstant(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}

// ── ICS 导入：提取手动排课日期 ──────────────────────────────
//
// 每个 VEVENT 的 DTSTART 贡献一个日期；FREQ=DAILY/WEEKLY 的 RRULE 按
// INTERVAL/COUNT/UNTIL 展开，EXDATE 排除。结果去重后按日期升序。
// ─────────────────────────────────────────────────────────────

// FetchICSContent 从 URL 获取 ICS 内容（webcal:// 视为 https://）
func FetchICSContent(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseSessionDatesICS 解析 ICS 内容，返回 [from, to] 范围内的日期（YYYY-MM-DD）
// to 为 nil 时不设上限，但展开总数不超过 icsMaxExpandedDates
func ParseSessionDatesICS(reader io.Reader, from time.Time, to *time.Time, loc *time.Location) ([]string, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	lower := model.DateOf(from)
	var upper time.Time
	if to != nil {
		upper = model.DateOf(*to)
	}
	inRange := func(d time.Time) bool {
		return !d.Before(lower) && (to == nil || !d.After(upper))
	}

	seen := make(map[string]bool)
	for _, evt := range cal.Events() {
		dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
		if err != nil {
			continue
		}
		for _, d := range expandEventDates(evt, dtStart, loc) {
			day := model.DateOf(d)
			if inRange(day) {
				seen[day.Format(model.DateLayout)] = true
			}
			if len(seen) >= icsMaxExpandedDates {
				break
			}
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

// expandEventDates 按 RRULE 展开事件发生日期
func expandEventDates(evt *ics.VEvent, dtStart time.Time, loc *time.Location) []time.Time {
	rruleProp := evt.GetProperty(ics.ComponentPropertyRrule)
	if rruleProp == nil {
		return []time.Time{dtStart}
	}

	rule := parseRRule(rruleProp.Value)
	var step func(time.Time) time.Time
	switch rule.freq {
	case "DAILY":
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, rule.interval) }
	case "WEEKLY":
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 7*rule.interval) }
	default:
		return []time.Time{dtStart}
	}

	exDates := parseExDates(evt, loc)
	var out []time.Time
	count := 0
	for current := dtStart; len(out) < icsMaxExpandedDates; current = step(current) {
		if !rule.until.IsZero() && current.After(rule.until) {
			break
		}
		if rule.count > 0 && count >= rule.count {
			break
		}
		count++
		if !exDates[current.Format("20060102")] {
			out = append(out, current)
		}
	}
	return out
}

// rruleParams RRULE 中用到的参数
type rruleParams struct {
	freq     string
	interval int
	count    int
	until    time.Time
}

// parseRRule 解析 RRULE 字符串（如 FREQ=WEEKLY;COUNT=16;INTERVAL=1）
func parseRRule(value string) rruleParams {
	r := rruleParams{interval: 1}
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			r.freq = strings.ToUpper(kv[1])
		case "INTERVAL":
			fmt.Sscanf(kv[1], "%d", &r.interval)
		case "COUNT":
			fmt.Sscanf(kv[1], "%d", &r.count)
		case "UNTIL":
			t, err := time.Parse("20060102T150405Z", kv[1])
			if err != nil {
				t, _ = time.Parse("20060102", kv[1])
			}
			r.until = t
		}
	}
	if r.interval < 1 {
		r.interval = 1
	}
	return r
}

// parseExDates 事件中所有 EXDATE，key 为 YYYYMMDD
func parseExDates(evt *ics.VEvent, loc *time.Location) map[string]bool {
	exDates := make(map[string]bool)
	for _, prop := range evt.Properties {
		if prop.IANAToken != string(ics.ComponentPropertyExdate) {
			continue
		}
		for _, v := range strings.Split(prop.Value, ",") {
			t, err := time.Parse("20060102T150405Z", v)
			if err != nil {
				t, err = time.ParseInLocation("20060102T150405", v, loc)
				if err != nil {
					t, err = time.ParseInLocation("20060102", v, loc)
				}
			}
			if err == nil {
				exDates[t.In(loc).Format("20060102")] = true
			}
		}
	}
	return exDates
}

// parseICSDateTime 解析 VEVENT 的日期时间属性，支持 UTC、TZID 与纯日期
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
