package service

import (
	"strings"
	"time"

	"coach-center/internal/dto"
	"coach-center/internal/model"
)

const timestampLayout = "2006-01-02T15:04:05Z07:00"

func formatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func formatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}

func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

// parseOptionalDate 空字符串视为清空
func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// humanizeStatus present → Present，not marked → Not Marked
func humanizeStatus(status string) string {
	words := strings.Fields(status)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func toPersonBrief(p model.AttendanceSubject) dto.PersonBrief {
	prof := p.Profile()
	return dto.PersonBrief{
		ID:           p.SubjectID(),
		Name:         prof.Name,
		Email:        prof.Email,
		ExcusedUntil: formatDatePtr(prof.ExcusedUntil),
		ExcuseReason: prof.ExcuseReason,
	}
}

func toPersonBriefs(people []model.AttendanceSubject) []dto.PersonBrief {
	out := make([]dto.PersonBrief, 0, len(people))
	for _, p := range people {
		out = append(out, toPersonBrief(p))
	}
	return out
}

func toSessionResponse(s *model.BatchSession) dto.SessionResponse {
	return dto.SessionResponse{
		ID:         s.BatchSessionID,
		BatchID:    s.BatchID,
		SequenceNo: s.SequenceNo,
		Date:       formatDate(s.Date),
		Weekday:    s.Date.Weekday().String(),
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Status:     s.Status,
		Notes:      s.Notes,
	}
}

func strPtr(s string) *string {
	return &s
}
