package service

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner-api/internal/dto"
	"github.com/noah-isme/timetable-planner-api/internal/models"
	"github.com/noah-isme/timetable-planner-api/internal/repository"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type courseRepository interface {
	Upsert(ctx context.Context, course *models.Course) error
	ReplaceAll(ctx context.Context, courses []*models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter repository.CourseFilter) ([]models.Course, int, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Course, error)
	Delete(ctx context.Context, id string) error
	FindSessionsByIDs(ctx context.Context, ids []string) ([]models.Session, error)
}

type catalogLoader interface {
	Load(courses, sessions io.Reader) ([]models.Course, error)
}

// CatalogService manages courses and their candidate sessions.
type CatalogService struct {
	repo      courseRepository
	loader    catalogLoader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService wires the catalog dependencies.
func NewCatalogService(repo courseRepository, loader catalogLoader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, loader: loader, cache: cache, validator: validate, logger: logger}
}

// CreateOrReplace stores the course under id, replacing any previous sessions.
func (s *CatalogService) CreateOrReplace(ctx context.Context, id string, req dto.UpsertCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}

	sessions := make([]models.Session, 0, len(req.Sessions))
	for _, in := range req.Sessions {
		session, err := models.NewSession(models.SessionInput{
			ID:              in.ID,
			CourseID:        id,
			Category:        models.Category(in.Category),
			DayOfWeek:       in.DayOfWeek,
			Start:           in.Start,
			End:             in.End,
			DurationHours:   in.DurationHours,
			Recurrence:      models.Recurrence(in.Recurrence),
			CapacityCurrent: in.CapacityCurrent,
			CapacityMax:     in.CapacityMax,
			Room:            in.Room,
			Instructor:      in.Instructor,
			Note:            in.Note,
		})
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	needed := make(models.NeededHours, len(req.NeededHours))
	for category, hours := range req.NeededHours {
		needed[models.Category(category)] = hours
	}

	course, err := models.NewCourse(id, req.Name, needed, sessions)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByID(ctx, course.ID); err == nil {
		course.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if err := s.repo.Upsert(ctx, &course); err != nil {
		return nil, s.writeError(err, "failed to store course")
	}
	s.invalidate(ctx)
	s.logger.Info("course stored", zap.String("course_id", course.ID), zap.Int("sessions", len(course.Sessions)))
	return &course, nil
}

// Get loads one course with its sessions.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// List returns a page of courses.
func (s *CatalogService) List(ctx context.Context, query dto.CourseQuery) (*dto.CourseList, error) {
	page := query.Page
	if page <= 0 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	courses, total, err := s.repo.List(ctx, repository.CourseFilter{
		Search: query.Search,
		Limit:  size,
		Offset: (page - 1) * size,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return &dto.CourseList{Items: courses, Total: total, Page: page, PageSize: size}, nil
}

// Delete removes a course and its sessions.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidate(ctx)
	return nil
}

// Import loads course and session CSV streams and stores every course in one transaction.
func (s *CatalogService) Import(ctx context.Context, courses, sessions io.Reader) (*dto.ImportResult, error) {
	if s.loader == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "catalog import is not configured")
	}
	loaded, err := s.loader.Load(courses, sessions)
	if err != nil {
		return nil, err
	}

	batch := make([]*models.Course, len(loaded))
	result := &dto.ImportResult{Courses: len(loaded)}
	for i := range loaded {
		batch[i] = &loaded[i]
		result.Sessions += len(loaded[i].Sessions)
	}
	if err := s.repo.ReplaceAll(ctx, batch); err != nil {
		return nil, s.writeError(err, "failed to import catalog")
	}
	s.invalidate(ctx)
	s.logger.Info("catalog imported", zap.Int("courses", result.Courses), zap.Int("sessions", result.Sessions))
	return result, nil
}

func (s *CatalogService) writeError(err error, message string) error {
	if repository.IsUniqueViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "session id already used by another course")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *CatalogService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, generationCachePattern)
}
