package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-planner-api/internal/models"
)

const preferenceColumns = `id, kind, day_of_week, start_minute, end_minute, priority, active, created_at, updated_at`

// PreferenceRepository persists the student's exclusion rules.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// List returns preferences ordered by priority, optionally only active ones.
func (r *PreferenceRepository) List(ctx context.Context, activeOnly bool) ([]models.Preference, error) {
	query := `SELECT ` + preferenceColumns + ` FROM preferences`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY priority ASC, created_at ASC`

	var prefs []models.Preference
	if err := r.db.SelectContext(ctx, &prefs, query); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

// FindByID loads one preference.
func (r *PreferenceRepository) FindByID(ctx context.Context, id string) (*models.Preference, error) {
	var pref models.Preference
	if err := r.db.GetContext(ctx, &pref, `SELECT `+preferenceColumns+` FROM preferences WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &pref, nil
}

// Create inserts a preference, assigning id and timestamps.
func (r *PreferenceRepository) Create(ctx context.Context, pref *models.Preference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	pref.CreatedAt = now
	pref.UpdatedAt = now

	const query = `
INSERT INTO preferences (id, kind, day_of_week, start_minute, end_minute, priority, active, created_at, updated_at)
VALUES (:id, :kind, :day_of_week, :start_minute, :end_minute, :priority, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("insert preference: %w", err)
	}
	return nil
}

// Update persists priority and active flag.
func (r *PreferenceRepository) Update(ctx context.Context, pref *models.Preference) error {
	pref.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `UPDATE preferences SET priority = $1, active = $2, updated_at = $3 WHERE id = $4`,
		pref.Priority, pref.Active, pref.UpdatedAt, pref.ID)
	if err != nil {
		return fmt.Errorf("update preference: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("preference rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a preference.
func (r *PreferenceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("preference rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
