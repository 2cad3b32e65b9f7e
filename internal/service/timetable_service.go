package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner-api/internal/dto"
	"github.com/noah-isme/timetable-planner-api/internal/models"
	"github.com/noah-isme/timetable-planner-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
	"github.com/noah-isme/timetable-planner-api/pkg/export"
	"github.com/noah-isme/timetable-planner-api/pkg/middleware/requestid"
)

const (
	generationCachePrefix  = "timetables:generate:"
	generationCachePattern = generationCachePrefix + "*"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type timetableCourseReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Course, error)
	FindSessionsByIDs(ctx context.Context, ids []string) ([]models.Session, error)
}

type preferenceLister interface {
	List(ctx context.Context, activeOnly bool) ([]models.Preference, error)
}

type savedTimetableRepository interface {
	Create(ctx context.Context, tt *models.SavedTimetable) error
	List(ctx context.Context) ([]models.SavedTimetable, error)
	FindByID(ctx context.Context, id string) (*models.SavedTimetable, error)
	Delete(ctx context.Context, id string) error
}

// TimetableConfig bounds generation.
type TimetableConfig struct {
	MaxResults int
	Timeout    time.Duration
	MaxCourses int
	CacheTTL   time.Duration
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// TimetableService generates, stores and exports timetables.
type TimetableService struct {
	courses   timetableCourseReader
	prefs     preferenceLister
	saved     savedTimetableRepository
	cache     *CacheService
	metrics   *MetricsService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableConfig
}

// NewTimetableService wires generation dependencies.
func NewTimetableService(
	courses timetableCourseReader,
	prefs preferenceLister,
	saved savedTimetableRepository,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxResults < 0 {
		cfg.MaxResults = scheduler.DefaultMaxResults
	}
	if cfg.MaxCourses <= 0 {
		cfg.MaxCourses = 16
	}
	return &TimetableService{
		courses:   courses,
		prefs:     prefs,
		saved:     saved,
		cache:     cache,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate searches for conflict-free timetables over the requested courses.
// An empty list is the normal answer when no timetable exists. A search cut short by the configured
// timeout returns what it found with Truncated set.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetablesRequest) (*dto.GenerateTimetablesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid generation payload")
	}
	ids := uniqueStrings(req.CourseIDs)
	if len(ids) > s.cfg.MaxCourses {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d courses can be combined", s.cfg.MaxCourses))
	}
	maxResults := s.cfg.MaxResults
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}

	courses, err := s.loadCourses(ctx, ids)
	if err != nil {
		return nil, err
	}
	prefs, err := s.collectPreferences(ctx, req)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("request_id", requestid.FromContext(ctx)), zap.Strings("courses", ids))
	key := generationCacheKey(courses, prefs, maxResults)
	var cached dto.GenerateTimetablesResponse
	if s.cache.Get(ctx, key, &cached) {
		cached.Cached = true
		s.metrics.ObserveGeneration(OutcomeCached, 0, len(cached.Timetables), 0)
		log.Debug("timetables served from cache")
		return &cached, nil
	}

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := scheduler.NewComposer(scheduler.Config{MaxResults: maxResults}).Compose(runCtx, courses, prefs)
	elapsed := time.Since(start)

	timedOut := false
	if err != nil {
		if ctx.Err() != nil {
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, "generation cancelled")
		}
		timedOut = true
	}

	resp := buildGenerateResponse(result)
	outcome := OutcomeFound
	switch {
	case timedOut:
		outcome = OutcomeTimeout
	case len(resp.Timetables) == 0:
		outcome = OutcomeInfeasible
	case resp.Truncated:
		outcome = OutcomeTruncated
	}
	s.metrics.ObserveGeneration(outcome, elapsed, len(resp.Timetables), result.Stats.Leaves)

	fields := []zap.Field{
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
		zap.Int("max_results", maxResults),
		zap.Int("preferences", len(prefs)),
		zap.Int("combinations", result.Stats.Combinations),
		zap.Int("leaves", result.Stats.Leaves),
		zap.Int("found", len(resp.Timetables)),
	}
	if timedOut {
		log.Warn("timetable search hit the time limit", fields...)
		return resp, nil
	}
	log.Info("timetables generated", fields...)
	s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, nil
}

// Save stores a timetable after checking that its sessions exist and are mutually compatible.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SavedTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid timetable payload")
	}
	ids := uniqueStrings(req.SessionIDs)
	if len(ids) != len(req.SessionIDs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session ids must be unique")
	}

	sessions, err := s.courses.FindSessionsByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	byID := make(map[string]models.Session, len(sessions))
	for _, session := range sessions {
		byID[session.ID] = session
	}

	tt := models.NewTimetable()
	for _, id := range ids {
		session, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("session %s does not exist", id))
		}
		if clash, ok := firstConflict(tt, session); ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("sessions %s and %s overlap", clash.ID, session.ID))
		}
		tt.Add(session)
	}

	saved := &models.SavedTimetable{Label: strings.TrimSpace(req.Label), SessionIDs: pq.StringArray(ids)}
	if err := s.saved.Create(ctx, saved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save timetable")
	}
	s.logger.Info("timetable saved", zap.String("timetable_id", saved.ID), zap.Int("sessions", tt.Len()))
	return &dto.SavedTimetableResponse{SavedTimetable: *saved, Sessions: tt.Chronological()}, nil
}

// List returns saved timetables newest first.
func (s *TimetableService) List(ctx context.Context) ([]models.SavedTimetable, error) {
	list, err := s.saved.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	if list == nil {
		list = []models.SavedTimetable{}
	}
	return list, nil
}

// Get returns a saved timetable with its sessions resolved.
func (s *TimetableService) Get(ctx context.Context, id string) (*dto.SavedTimetableResponse, error) {
	saved, tt, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SavedTimetableResponse{SavedTimetable: *saved, Sessions: tt.Chronological()}, nil
}

// Delete removes a saved timetable.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if !validTimetableID(id) {
		return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	if err := s.saved.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// Export renders a saved timetable as CSV or PDF. An empty format means CSV.
func (s *TimetableService) Export(ctx context.Context, id, format string) (*ExportFile, error) {
	if err := s.validator.Struct(dto.ExportQuery{Format: format}); err != nil {
		return nil, appErrors.Validation(err, "unsupported export format")
	}
	saved, tt, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	base := exportBaseName(saved)
	switch format {
	case FormatPDF:
		body, err := s.pdf.Render(tt, saved.Label)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		body, err := s.csv.Render(tt)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{Filename: base + ".csv", ContentType: "text/csv; charset=utf-8", Body: body}, nil
	}
}

func (s *TimetableService) resolve(ctx context.Context, id string) (*models.SavedTimetable, *models.Timetable, error) {
	if !validTimetableID(id) {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	saved, err := s.saved.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	sessions, err := s.courses.FindSessionsByIDs(ctx, saved.SessionIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	if len(sessions) != len(saved.SessionIDs) {
		s.logger.Warn("saved timetable references removed sessions",
			zap.String("timetable_id", saved.ID),
			zap.Int("stored", len(saved.SessionIDs)),
			zap.Int("resolved", len(sessions)))
	}
	tt := models.NewTimetable()
	for _, session := range sessions {
		tt.Add(session)
	}
	return saved, tt, nil
}

// Saved timetables are keyed by UUID; anything else cannot exist.
func validTimetableID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// loadCourses returns the requested courses in request order, skipping courses without sessions.
func (s *TimetableService) loadCourses(ctx context.Context, ids []string) ([]models.Course, error) {
	found, err := s.courses.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	byID := make(map[string]models.Course, len(found))
	for _, course := range found {
		byID[course.ID] = course
	}

	courses := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		course, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", id))
		}
		if len(course.Sessions) == 0 {
			s.logger.Debug("course without sessions skipped", zap.String("course_id", id))
			continue
		}
		courses = append(courses, course)
	}
	return courses, nil
}

func (s *TimetableService) collectPreferences(ctx context.Context, req dto.GenerateTimetablesRequest) ([]models.Preference, error) {
	var prefs []models.Preference
	if req.IncludeStoredPrefs && s.prefs != nil {
		stored, err := s.prefs.List(ctx, true)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
		}
		prefs = append(prefs, stored...)
	}
	for _, in := range req.Preferences {
		pref, err := BuildPreference(s.validator, in)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, pref)
	}
	return prefs, nil
}

func buildGenerateResponse(result scheduler.Result) *dto.GenerateTimetablesResponse {
	resp := &dto.GenerateTimetablesResponse{
		Timetables: make([]dto.GeneratedTimetable, 0, len(result.Timetables)),
		Truncated:  result.Truncated,
		Stats:      result.Stats,
	}
	for _, tt := range result.Timetables {
		resp.Timetables = append(resp.Timetables, dto.GeneratedTimetable{
			SessionIDs: tt.IDs(),
			Sessions:   tt.Chronological(),
		})
	}
	if len(resp.Timetables) > 0 {
		primary := resp.Timetables[0]
		resp.Primary = &primary
	}
	return resp
}

type cacheCourse struct {
	ID          string             `json:"id"`
	NeededHours models.NeededHours `json:"neededHours"`
	Sessions    []models.Session   `json:"sessions"`
}

type cachePreference struct {
	Kind        models.PreferenceKind `json:"kind"`
	DayOfWeek   int                   `json:"day"`
	StartMinute int                   `json:"start"`
	EndMinute   int                   `json:"end"`
	Active      bool                  `json:"active"`
}

// generationCacheKey hashes everything that determines a search result. Course order matters;
// preference order does not.
func generationCacheKey(courses []models.Course, prefs []models.Preference, maxResults int) string {
	payload := struct {
		Courses     []cacheCourse     `json:"courses"`
		Preferences []cachePreference `json:"preferences"`
		MaxResults  int               `json:"maxResults"`
	}{MaxResults: maxResults}

	for _, c := range courses {
		payload.Courses = append(payload.Courses, cacheCourse{ID: c.ID, NeededHours: c.NeededHours, Sessions: c.Sessions})
	}
	for _, p := range prefs {
		payload.Preferences = append(payload.Preferences, cachePreference{
			Kind: p.Kind, DayOfWeek: p.DayOfWeek, StartMinute: p.StartMinute, EndMinute: p.EndMinute, Active: p.Active,
		})
	}
	sort.Slice(payload.Preferences, func(i, j int) bool {
		a, b := payload.Preferences[i], payload.Preferences[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartMinute != b.StartMinute {
			return a.StartMinute < b.StartMinute
		}
		if a.EndMinute != b.EndMinute {
			return a.EndMinute < b.EndMinute
		}
		return !a.Active && b.Active
	})

	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return generationCachePrefix + hex.EncodeToString(sum[:])
}

func firstConflict(tt *models.Timetable, session models.Session) (models.Session, bool) {
	for _, existing := range tt.Sessions() {
		if models.Conflicts(existing, session) {
			return existing, true
		}
	}
	return models.Session{}, false
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func exportBaseName(saved *models.SavedTimetable) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ':
			return '-'
		}
		return -1
	}, saved.Label)
	if name == "" {
		name = "timetable-" + saved.ID
	}
	return name
}
