package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"coach-center/internal/model"
	"coach-center/internal/repository"
	pkgerrors "coach-center/pkg/errors"
)

// ── 测试时钟 ──

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func clockAt(date string) fixedClock {
	d, err := model.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return fixedClock{now: d.Add(12 * time.Hour)}
}

func mustDate(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *time.Time {
	d := mustDate(s)
	return &d
}

func intPtr(n int) *int { return &n }

// ── Mock 聚合 ──

type mockRepos struct {
	venues     *mockVenueRepo
	batches    *mockBatchRepo
	sessions   *mockSessionRepo
	persons    *mockPersonRepo
	attendance *mockAttendanceRepo
	logs       *mockActivityLogRepo
	repo       *repository.Repository
}

func newMockRepos() *mockRepos {
	m := &mockRepos{
		venues:   newMockVenueRepo(),
		batches:  newMockBatchRepo(),
		sessions: newMockSessionRepo(),
		persons:  newMockPersonRepo(),
		logs:     &mockActivityLogRepo{},
	}
	m.attendance = newMockAttendanceRepo(m.sessions, m.batches)
	m.repo = &repository.Repository{
		Venue:       m.venues,
		Batch:       m.batches,
		Session:     m.sessions,
		Person:      m.persons,
		Attendance:  m.attendance,
		ActivityLog: m.logs,
	}
	return m
}

// ── Mock VenueRepository ──

type mockVenueRepo struct {
	venues map[string]*model.Venue
	seq    int
}

func newMockVenueRepo() *mockVenueRepo {
	return &mockVenueRepo{venues: make(map[string]*model.Venue)}
}

func (m *mockVenueRepo) Create(_ context.Context, venue *model.Venue) error {
	if venue.VenueID == "" {
		m.seq++
		venue.VenueID = fmt.Sprintf("venue-%d", m.seq)
	}
	cp := *venue
	m.venues[venue.VenueID] = &cp
	return nil
}

func (m *mockVenueRepo) GetByID(_ context.Context, id string) (*model.Venue, error) {
	if v, ok := m.venues[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVenueRepo) List(_ context.Context, includeInactive bool) ([]model.Venue, error) {
	var result []model.Venue
	for _, v := range m.venues {
		if !includeInactive && !v.IsActive {
			continue
		}
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockVenueRepo) Update(_ context.Context, venue *model.Venue) error {
	cp := *venue
	m.venues[venue.VenueID] = &cp
	return nil
}

func (m *mockVenueRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.venues, id)
	return nil
}

// ── Mock BatchRepository ──

type mockBatchRepo struct {
	batches map[string]*model.Batch
	seq     int
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{batches: make(map[string]*model.Batch)}
}

func (m *mockBatchRepo) Create(_ context.Context, batch *model.Batch) error {
	if batch.BatchID == "" {
		m.seq++
		batch.BatchID = fmt.Sprintf("batch-%d", m.seq)
	}
	batch.Version = 1
	cp := *batch
	m.batches[batch.BatchID] = &cp
	return nil
}

func (m *mockBatchRepo) GetByID(_ context.Context, id string) (*model.Batch, error) {
	if b, ok := m.batches[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBatchRepo) List(_ context.Context, filter repository.BatchListFilter) ([]model.Batch, int64, error) {
	var result []model.Batch
	for _, b := range m.batches {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, int64(len(result)), nil
}

func (m *mockBatchRepo) Update(_ context.Context, batch *model.Batch) error {
	stored, ok := m.batches[batch.BatchID]
	if !ok || stored.Version != batch.Version {
		return pkgerrors.ErrOptimisticLock
	}
	batch.Version++
	cp := *batch
	m.batches[batch.BatchID] = &cp
	return nil
}

func (m *mockBatchRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.batches, id)
	return nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.BatchSession
	seq      int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.BatchSession)}
}

func (m *mockSessionRepo) add(s model.BatchSession) *model.BatchSession {
	if s.BatchSessionID == "" {
		m.seq++
		s.BatchSessionID = fmt.Sprintf("session-%d", m.seq)
	}
	if s.Status == "" {
		s.Status = model.SessionStatusScheduled
	}
	m.sessions[s.BatchSessionID] = &s
	return &s
}

func (m *mockSessionRepo) BatchCreate(_ context.Context, sessions []model.BatchSession) error {
	for i := range sessions {
		m.add(sessions[i])
	}
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.BatchSession, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) ListByBatch(_ context.Context, batchID string) ([]model.BatchSession, error) {
	var result []model.BatchSession
	for _, s := range m.sessions {
		if s.BatchID == batchID {
			result = append(result, *s)
		}
	}
	sortSessions(result)
	return result, nil
}

func (m *mockSessionRepo) ListByBatchAndDate(_ context.Context, batchID string, date time.Time) ([]model.BatchSession, error) {
	var result []model.BatchSession
	for _, s := range m.sessions {
		if s.BatchID == batchID && s.Date.Equal(model.DateOf(date)) {
			result = append(result, *s)
		}
	}
	sortSessions(result)
	return result, nil
}

func (m *mockSessionRepo) CountUpToSequence(_ context.Context, batchID string, seq int) (int64, error) {
	var n int64
	for _, s := range m.sessions {
		if s.BatchID == batchID && s.SequenceNo <= seq {
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepo) Update(_ context.Context, session *model.BatchSession) error {
	if _, ok := m.sessions[session.BatchSessionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *session
	m.sessions[session.BatchSessionID] = &cp
	return nil
}

func (m *mockSessionRepo) DeleteByBatch(_ context.Context, batchID string) (int64, error) {
	var n int64
	for id, s := range m.sessions {
		if s.BatchID == batchID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepo) CompletePast(_ context.Context, today time.Time, clock string) (int64, error) {
	var n int64
	day := model.DateOf(today)
	for _, s := range m.sessions {
		if s.Status != model.SessionStatusScheduled {
			continue
		}
		if s.Date.Before(day) || (s.Date.Equal(day) && s.EndTime <= clock) {
			s.Status = model.SessionStatusCompleted
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepo) countByBatch(batchID string) int {
	n := 0
	for _, s := range m.sessions {
		if s.BatchID == batchID {
			n++
		}
	}
	return n
}

func sortSessions(sessions []model.BatchSession) {
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.SequenceNo < b.SequenceNo
	})
}

// ── Mock PersonRepository ──

type mockPersonRepo struct {
	people  map[model.PersonType]map[string]model.AttendanceSubject
	rosters map[model.PersonType]map[string][]string
	seq     int
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{
		people: map[model.PersonType]map[string]model.AttendanceSubject{
			model.PersonTypeMember:  {},
			model.PersonTypePartner: {},
		},
		rosters: map[model.PersonType]map[string][]string{
			model.PersonTypeMember:  {},
			model.PersonTypePartner: {},
		},
	}
}

// seed 直接写入一名人员，返回其 id
func (m *mockPersonRepo) seed(pt model.PersonType, name string, excusedUntil *time.Time) string {
	m.seq++
	id := fmt.Sprintf("%s-%d", pt, m.seq)
	m.people[pt][id] = model.NewSubject(pt, id, model.PersonProfile{
		Name:         name,
		Email:        fmt.Sprintf("%s%d@example.com", pt, m.seq),
		Status:       model.PersonStatusActive,
		ExcusedUntil: excusedUntil,
	})
	return id
}

func (m *mockPersonRepo) Create(_ context.Context, person model.AttendanceSubject) error {
	m.seq++
	id := fmt.Sprintf("%s-%d", person.Kind(), m.seq)
	switch p := person.(type) {
	case *model.Member:
		p.MemberID = id
	case *model.Partner:
		p.PartnerID = id
	}
	m.people[person.Kind()][id] = person
	return nil
}

func (m *mockPersonRepo) GetByID(_ context.Context, pt model.PersonType, id string) (model.AttendanceSubject, error) {
	if p, ok := m.people[pt][id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) List(_ context.Context, pt model.PersonType, filter repository.PersonListFilter) ([]model.AttendanceSubject, int64, error) {
	var result []model.AttendanceSubject
	for _, p := range m.people[pt] {
		if filter.Status != "" && p.Profile().Status != filter.Status {
			continue
		}
		result = append(result, p)
	}
	sortByName(result)
	return result, int64(len(result)), nil
}

func (m *mockPersonRepo) Update(_ context.Context, person model.AttendanceSubject, _ string) error {
	m.people[person.Kind()][person.SubjectID()] = person
	return nil
}

func (m *mockPersonRepo) Delete(_ context.Context, pt model.PersonType, id string, _ string) error {
	delete(m.people[pt], id)
	return nil
}

func (m *mockPersonRepo) CountByIDs(_ context.Context, pt model.PersonType, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := m.people[pt][id]; ok {
			n++
		}
	}
	return n, nil
}

func (m *mockPersonRepo) ListActiveByBatch(_ context.Context, pt model.PersonType, batchID string) ([]model.AttendanceSubject, error) {
	var result []model.AttendanceSubject
	for _, id := range m.rosters[pt][batchID] {
		if p, ok := m.people[pt][id]; ok && p.Profile().IsActive() {
			result = append(result, p)
		}
	}
	sortByName(result)
	return result, nil
}

func (m *mockPersonRepo) IsActiveOnBatch(_ context.Context, pt model.PersonType, batchID, personID string) (bool, error) {
	for _, id := range m.rosters[pt][batchID] {
		if id != personID {
			continue
		}
		p, ok := m.people[pt][id]
		return ok && p.Profile().IsActive(), nil
	}
	return false, nil
}

func (m *mockPersonRepo) ListActiveByBatches(ctx context.Context, pt model.PersonType, batchIDs []string) (map[string][]model.AttendanceSubject, error) {
	result := make(map[string][]model.AttendanceSubject)
	for _, id := range batchIDs {
		people, _ := m.ListActiveByBatch(ctx, pt, id)
		if len(people) > 0 {
			result[id] = people
		}
	}
	return result, nil
}

func (m *mockPersonRepo) ReplaceRoster(_ context.Context, pt model.PersonType, batchID string, personIDs []string) error {
	m.rosters[pt][batchID] = append([]string{}, personIDs...)
	return nil
}

func sortByName(people []model.AttendanceSubject) {
	sort.Slice(people, func(i, j int) bool {
		return people[i].Profile().Name < people[j].Profile().Name
	})
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records  map[model.PersonType]map[string]*model.AttendanceRecord
	sessions *mockSessionRepo
	batches  *mockBatchRepo
	seq      int
}

func newMockAttendanceRepo(sessions *mockSessionRepo, batches *mockBatchRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{
		records: map[model.PersonType]map[string]*model.AttendanceRecord{
			model.PersonTypeMember:  {},
			model.PersonTypePartner: {},
		},
		sessions: sessions,
		batches:  batches,
	}
}

func (m *mockAttendanceRepo) count(pt model.PersonType) int {
	return len(m.records[pt])
}

func (m *mockAttendanceRepo) InsertMissing(_ context.Context, pt model.PersonType, rows []model.AttendanceRecord) (int64, error) {
	var n int64
	for _, row := range rows {
		key := recordKey(row.BatchSessionID, row.PersonID)
		if _, exists := m.records[pt][key]; exists {
			continue
		}
		cp := row
		m.records[pt][key] = &cp
		n++
	}
	return n, nil
}

func (m *mockAttendanceRepo) ListBySessions(_ context.Context, pt model.PersonType, sessionIDs []string) ([]model.AttendanceRecord, error) {
	want := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	var result []model.AttendanceRecord
	for _, r := range m.records[pt] {
		if want[r.BatchSessionID] {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) GetBySessionAndPerson(_ context.Context, pt model.PersonType, sessionID, personID string) (*model.AttendanceRecord, error) {
	if r, ok := m.records[pt][recordKey(sessionID, personID)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, pt model.PersonType, rec *model.AttendanceRecord) error {
	key := recordKey(rec.BatchSessionID, rec.PersonID)
	if existing, ok := m.records[pt][key]; ok {
		existing.Status = rec.Status
		existing.Notes = rec.Notes
		existing.MarkedAt = rec.MarkedAt
		existing.MarkedBy = rec.MarkedBy
		*rec = *existing
		return nil
	}
	cp := *rec
	m.records[pt][key] = &cp
	return nil
}

func (m *mockAttendanceRepo) ListRecentByPerson(_ context.Context, pt model.PersonType, personID string, today time.Time, limit int) ([]model.AttendanceWithSession, error) {
	var rows []model.AttendanceWithSession
	for _, r := range m.records[pt] {
		if r.PersonID != personID {
			continue
		}
		sess, ok := m.sessions.sessions[r.BatchSessionID]
		if !ok || sess.Date.After(model.DateOf(today)) {
			continue
		}
		row := model.AttendanceWithSession{AttendanceRecord: *r, SessionDate: sess.Date, BatchID: sess.BatchID}
		if b, ok := m.batches.batches[sess.BatchID]; ok {
			row.BatchName = b.Name
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].SessionDate.Equal(rows[j].SessionDate) {
			return rows[i].SessionDate.After(rows[j].SessionDate)
		}
		a, b := rows[i].MarkedAt, rows[j].MarkedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// ── Mock ActivityLogRepository ──

type mockActivityLogRepo struct {
	logs []model.ActivityLog
}

func (m *mockActivityLogRepo) Create(_ context.Context, log *model.ActivityLog) error {
	log.ActivityLogID = fmt.Sprintf("log-%d", len(m.logs)+1)
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockActivityLogRepo) List(_ context.Context, filter repository.ActivityLogFilter) ([]model.ActivityLog, int64, error) {
	var result []model.ActivityLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if filter.SubjectType != "" && l.SubjectType != filter.SubjectType {
			continue
		}
		if filter.SubjectID != "" && l.SubjectID != filter.SubjectID {
			continue
		}
		result = append(result, l)
	}
	return result, int64(len(result)), nil
}

func (m *mockActivityLogRepo) actions() []string {
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

// ── Mock CalendarInvalidator ──

type recordingInvalidator struct {
	invalidated []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, batchID string) {
	r.invalidated = append(r.invalidated, batchID)
}
