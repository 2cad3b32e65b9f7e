package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner-api/internal/dto"
	"github.com/noah-isme/timetable-planner-api/internal/models"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
)

func TestPreferenceServiceCreate(t *testing.T) {
	repo := &preferenceRepoStub{}
	store := newMemoryCache()
	svc := NewPreferenceService(repo, NewCacheService(store, nil, time.Minute, nil, true), nil, zap.NewNop())
	ctx := context.Background()

	free, err := svc.Create(ctx, dto.CreatePreferenceRequest{Kind: "FREE_DAY", DayOfWeek: models.Friday, Priority: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, free.ID)
	assert.Equal(t, models.PreferenceFreeDay, free.Kind)
	assert.True(t, free.Active)

	window, err := svc.Create(ctx, dto.CreatePreferenceRequest{
		Kind: "AVOID_WINDOW", DayOfWeek: models.Tuesday, Start: "07:30", End: "09:00", Active: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, 450, window.StartMinute)
	assert.Equal(t, 540, window.EndMinute)
	assert.False(t, window.Active)

	assert.Len(t, repo.items, 2)
	assert.Len(t, store.invalidated, 2)
}

func TestPreferenceServiceCreateValidation(t *testing.T) {
	svc := NewPreferenceService(&preferenceRepoStub{}, nil, nil, nil)
	ctx := context.Background()

	cases := map[string]dto.CreatePreferenceRequest{
		"unknown kind":        {Kind: "LATE_START", DayOfWeek: models.Monday},
		"day out of range":    {Kind: "FREE_DAY", DayOfWeek: 9},
		"window without ends": {Kind: "AVOID_WINDOW", DayOfWeek: models.Monday},
		"inverted window":     {Kind: "AVOID_WINDOW", DayOfWeek: models.Monday, Start: "12:00", End: "10:00"},
		"bad clock":           {Kind: "AVOID_WINDOW", DayOfWeek: models.Monday, Start: "noon", End: "13:00"},
		"negative priority":   {Kind: "FREE_DAY", DayOfWeek: models.Monday, Priority: -1},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestPreferenceServiceUpdate(t *testing.T) {
	pref, err := models.NewFreeDay(models.Monday, 1)
	require.NoError(t, err)
	pref.ID = "p1"
	repo := &preferenceRepoStub{items: []models.Preference{pref}}
	svc := NewPreferenceService(repo, nil, nil, nil)
	ctx := context.Background()

	updated, err := svc.Update(ctx, "p1", dto.UpdatePreferenceRequest{Active: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, 1, updated.Priority)

	updated, err = svc.Update(ctx, "p1", dto.UpdatePreferenceRequest{Priority: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Priority)
	assert.False(t, updated.Active)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.Update(ctx, "missing", dto.UpdatePreferenceRequest{Active: boolPtr(true)})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Update(ctx, "p1", dto.UpdatePreferenceRequest{Priority: intPtr(5000)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPreferenceServiceListAndDelete(t *testing.T) {
	pref, err := models.NewFreeDay(models.Monday, 1)
	require.NoError(t, err)
	pref.ID = "p1"
	repo := &preferenceRepoStub{items: []models.Preference{pref}}
	svc := NewPreferenceService(repo, nil, nil, nil)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, "p1"))
	assert.ErrorIs(t, svc.Delete(ctx, "p1"), appErrors.ErrNotFound)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	repo.err = errors.New("db down")
	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
