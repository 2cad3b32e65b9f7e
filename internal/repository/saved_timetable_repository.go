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

// SavedTimetableRepository stores timetables the student decided to keep.
type SavedTimetableRepository struct {
	db *sqlx.DB
}

// NewSavedTimetableRepository constructs the repository.
func NewSavedTimetableRepository(db *sqlx.DB) *SavedTimetableRepository {
	return &SavedTimetableRepository{db: db}
}

// Create inserts a saved timetable.
func (r *SavedTimetableRepository) Create(ctx context.Context, tt *models.SavedTimetable) error {
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	if tt.CreatedAt.IsZero() {
		tt.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO saved_timetables (id, label, session_ids, created_at) VALUES (:id, :label, :session_ids, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tt); err != nil {
		return fmt.Errorf("insert saved timetable: %w", err)
	}
	return nil
}

// List returns saved timetables newest first.
func (r *SavedTimetableRepository) List(ctx context.Context) ([]models.SavedTimetable, error) {
	var out []models.SavedTimetable
	if err := r.db.SelectContext(ctx, &out, `SELECT id, label, session_ids, created_at FROM saved_timetables ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list saved timetables: %w", err)
	}
	return out, nil
}

// FindByID loads a saved timetable.
func (r *SavedTimetableRepository) FindByID(ctx context.Context, id string) (*models.SavedTimetable, error) {
	var tt models.SavedTimetable
	if err := r.db.GetContext(ctx, &tt, `SELECT id, label, session_ids, created_at FROM saved_timetables WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &tt, nil
}

// Delete removes a saved timetable.
func (r *SavedTimetableRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM saved_timetables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete saved timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("saved timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
