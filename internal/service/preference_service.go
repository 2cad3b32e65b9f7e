package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner-api/internal/dto"
	"github.com/noah-isme/timetable-planner-api/internal/models"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
)

type preferenceRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Preference, error)
	FindByID(ctx context.Context, id string) (*models.Preference, error)
	Create(ctx context.Context, pref *models.Preference) error
	Update(ctx context.Context, pref *models.Preference) error
	Delete(ctx context.Context, id string) error
}

// PreferenceService manages stored exclusion rules.
type PreferenceService struct {
	repo      preferenceRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPreferenceService builds the service.
func NewPreferenceService(repo preferenceRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every stored preference ordered by priority.
func (s *PreferenceService) List(ctx context.Context) ([]models.Preference, error) {
	prefs, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list preferences")
	}
	if prefs == nil {
		prefs = []models.Preference{}
	}
	return prefs, nil
}

// Active returns the preferences that take part in generation.
func (s *PreferenceService) Active(ctx context.Context) ([]models.Preference, error) {
	prefs, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}
	return prefs, nil
}

// Create validates and stores a new preference.
func (s *PreferenceService) Create(ctx context.Context, req dto.CreatePreferenceRequest) (*models.Preference, error) {
	pref, err := BuildPreference(s.validator, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create preference")
	}
	s.cache.Invalidate(ctx, generationCachePattern)
	return &pref, nil
}

// Update changes priority and/or the active flag.
func (s *PreferenceService) Update(ctx context.Context, id string, req dto.UpdatePreferenceRequest) (*models.Preference, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid preference payload")
	}
	pref, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "preference not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference")
	}
	if req.Priority != nil {
		pref.Priority = *req.Priority
	}
	if req.Active != nil {
		pref.Active = *req.Active
	}
	if err := s.repo.Update(ctx, pref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "preference not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update preference")
	}
	s.cache.Invalidate(ctx, generationCachePattern)
	return pref, nil
}

// Delete removes a preference.
func (s *PreferenceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "preference not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete preference")
	}
	s.cache.Invalidate(ctx, generationCachePattern)
	return nil
}

// BuildPreference turns a request into a validated preference.
func BuildPreference(validate *validator.Validate, req dto.CreatePreferenceRequest) (models.Preference, error) {
	if err := validate.Struct(req); err != nil {
		return models.Preference{}, appErrors.Validation(err, "invalid preference payload")
	}
	var (
		pref models.Preference
		err  error
	)
	switch models.PreferenceKind(req.Kind) {
	case models.PreferenceFreeDay:
		pref, err = models.NewFreeDay(req.DayOfWeek, req.Priority)
	default:
		pref, err = models.NewAvoidWindow(req.DayOfWeek, req.Start, req.End, req.Priority)
	}
	if err != nil {
		return models.Preference{}, err
	}
	if req.Active != nil {
		pref.Active = *req.Active
	}
	return pref, nil
}
