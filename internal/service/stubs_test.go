package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-planner-api/internal/models"
	"github.com/noah-isme/timetable-planner-api/internal/repository"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
)

const savedTimetableID = "7d4c2f0e-3b1a-4c8e-9f21-5a6b7c8d9e01"

type courseRepoStub struct {
	courses  map[string]models.Course
	order    []string
	upserted []*models.Course
	err      error
	writeErr error
	listed   int
}

func newCourseRepoStub(courses ...models.Course) *courseRepoStub {
	stub := &courseRepoStub{courses: map[string]models.Course{}}
	for _, c := range courses {
		stub.courses[c.ID] = c
		stub.order = append(stub.order, c.ID)
	}
	return stub
}

func (s *courseRepoStub) Upsert(ctx context.Context, course *models.Course) error {
	return s.ReplaceAll(ctx, []*models.Course{course})
}

func (s *courseRepoStub) ReplaceAll(ctx context.Context, courses []*models.Course) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	for _, c := range courses {
		if _, ok := s.courses[c.ID]; !ok {
			s.order = append(s.order, c.ID)
		}
		s.courses[c.ID] = *c
		s.upserted = append(s.upserted, c)
	}
	return nil
}

func (s *courseRepoStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *courseRepoStub) List(ctx context.Context, filter repository.CourseFilter) ([]models.Course, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	var out []models.Course
	for _, id := range s.order {
		if filter.Search == "" || strings.Contains(id, filter.Search) {
			out = append(out, s.courses[id])
		}
	}
	total := len(out)
	if filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else {
		out = nil
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (s *courseRepoStub) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	s.listed++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Course
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	for _, id := range sorted {
		if c, ok := s.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *courseRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.courses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.courses, id)
	return nil
}

func (s *courseRepoStub) FindSessionsByIDs(ctx context.Context, ids []string) ([]models.Session, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Session
	for _, cid := range s.order {
		for _, session := range s.courses[cid].Sessions {
			if want[session.ID] {
				out = append(out, session)
			}
		}
	}
	return out, nil
}

type preferenceRepoStub struct {
	items []models.Preference
	err   error
}

func (s *preferenceRepoStub) List(ctx context.Context, activeOnly bool) ([]models.Preference, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Preference
	for _, p := range s.items {
		if !activeOnly || p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *preferenceRepoStub) FindByID(ctx context.Context, id string) (*models.Preference, error) {
	for _, p := range s.items {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *preferenceRepoStub) Create(ctx context.Context, pref *models.Preference) error {
	if pref.ID == "" {
		pref.ID = "pref-" + string(rune('a'+len(s.items)))
	}
	s.items = append(s.items, *pref)
	return nil
}

func (s *preferenceRepoStub) Update(ctx context.Context, pref *models.Preference) error {
	for i, p := range s.items {
		if p.ID == pref.ID {
			s.items[i] = *pref
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *preferenceRepoStub) Delete(ctx context.Context, id string) error {
	for i, p := range s.items {
		if p.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type savedRepoStub struct {
	items map[string]models.SavedTimetable
}

func newSavedRepoStub() *savedRepoStub {
	return &savedRepoStub{items: map[string]models.SavedTimetable{}}
}

func (s *savedRepoStub) Create(ctx context.Context, tt *models.SavedTimetable) error {
	if tt.ID == "" {
		tt.ID = savedTimetableID
	}
	tt.CreatedAt = time.Now()
	s.items[tt.ID] = *tt
	return nil
}

func (s *savedRepoStub) List(ctx context.Context) ([]models.SavedTimetable, error) {
	var out []models.SavedTimetable
	for _, tt := range s.items {
		out = append(out, tt)
	}
	return out, nil
}

func (s *savedRepoStub) FindByID(ctx context.Context, id string) (*models.SavedTimetable, error) {
	tt, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &tt, nil
}

func (s *savedRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

type memoryCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

type loaderStub struct {
	courses []models.Course
	err     error
}

func (l *loaderStub) Load(courses, sessions io.Reader) ([]models.Course, error) {
	return l.courses, l.err
}

func mustSession(t *testing.T, id, courseID string, category models.Category, day int, start, end string, rec models.Recurrence) models.Session {
	t.Helper()
	s, err := models.NewSession(models.SessionInput{
		ID: id, CourseID: courseID, Category: category, DayOfWeek: day, Start: start, End: end, Recurrence: rec,
	})
	require.NoError(t, err)
	return s
}

func mustCourse(t *testing.T, id string, needed models.NeededHours, sessions ...models.Session) models.Course {
	t.Helper()
	c, err := models.NewCourse(id, id, needed, sessions)
	require.NoError(t, err)
	return c
}
