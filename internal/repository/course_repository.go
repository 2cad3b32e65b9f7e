package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-planner-api/internal/models"
)

const (
	courseColumns  = `id, name, needed_hours, created_at, updated_at`
	sessionColumns = `id, course_id, category, day_of_week, start_minute, end_minute, duration_hours, recurrence, capacity_current, capacity_max, room, instructor, note`
)

// CourseFilter narrows course listings.
type CourseFilter struct {
	Search string
	Limit  int
	Offset int
}

// CourseRepository persists courses together with their candidate sessions.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

type sessionRecord struct {
	models.Session
	Position int `db:"position"`
}

// Upsert stores the course row and replaces its sessions atomically.
func (r *CourseRepository) Upsert(ctx context.Context, course *models.Course) error {
	return r.ReplaceAll(ctx, []*models.Course{course})
}

// ReplaceAll upserts many courses in one transaction. Each course's sessions are replaced wholesale.
func (r *CourseRepository) ReplaceAll(ctx context.Context, courses []*models.Course) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, course := range courses {
		if err = r.upsertTx(ctx, tx, course); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit course tx: %w", err)
	}
	return nil
}

func (r *CourseRepository) upsertTx(ctx context.Context, tx *sqlx.Tx, course *models.Course) error {
	if course == nil {
		return fmt.Errorf("course payload is nil")
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const upsertCourse = `
INSERT INTO courses (id, name, needed_hours, created_at, updated_at)
VALUES (:id, :name, :needed_hours, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, needed_hours = EXCLUDED.needed_hours, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, tx, upsertCourse, course); err != nil {
		return fmt.Errorf("upsert course %s: %w", course.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_sessions WHERE course_id = $1`, course.ID); err != nil {
		return fmt.Errorf("clear sessions of %s: %w", course.ID, err)
	}

	const insertSession = `
INSERT INTO course_sessions (id, course_id, position, category, day_of_week, start_minute, end_minute, duration_hours, recurrence, capacity_current, capacity_max, room, instructor, note)
VALUES (:id, :course_id, :position, :category, :day_of_week, :start_minute, :end_minute, :duration_hours, :recurrence, :capacity_current, :capacity_max, :room, :instructor, :note)`
	for i, session := range course.Sessions {
		record := sessionRecord{Session: session, Position: i}
		if _, err := sqlx.NamedExecContext(ctx, tx, insertSession, record); err != nil {
			return fmt.Errorf("insert session %s: %w", session.ID, err)
		}
	}
	return nil
}

// FindByID loads a course with its sessions.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id); err != nil {
		return nil, err
	}
	sessions, err := r.sessionsOf(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	course.Sessions = sessions[id]
	return &course, nil
}

// List returns a page of courses with sessions and the total count.
func (r *CourseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(id ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	query := `SELECT ` + courseColumns + ` FROM courses` + clause + ` ORDER BY id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	if err := r.attachSessions(ctx, courses); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// ListByIDs loads the requested courses with sessions. Missing ids are simply absent from the result.
func (r *CourseRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, `SELECT `+courseColumns+` FROM courses WHERE id = ANY($1) ORDER BY id`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list courses by ids: %w", err)
	}
	if err := r.attachSessions(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Delete removes a course; its sessions cascade.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("course rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindSessionsByIDs loads sessions by id in catalog order.
func (r *CourseRepository) FindSessionsByIDs(ctx context.Context, ids []string) ([]models.Session, error) {
	if len(ids) == 0 {
		return []models.Session{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+sessionColumns+` FROM course_sessions WHERE id IN (?) ORDER BY course_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("build sessions query: %w", err)
	}
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	return sessions, nil
}

func (r *CourseRepository) attachSessions(ctx context.Context, courses []models.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	byCourse, err := r.sessionsOf(ctx, ids)
	if err != nil {
		return err
	}
	for i := range courses {
		courses[i].Sessions = byCourse[courses[i].ID]
	}
	return nil
}

func (r *CourseRepository) sessionsOf(ctx context.Context, courseIDs []string) (map[string][]models.Session, error) {
	query, args, err := sqlx.In(`SELECT `+sessionColumns+` FROM course_sessions WHERE course_id IN (?) ORDER BY course_id, position`, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build course sessions query: %w", err)
	}
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load course sessions: %w", err)
	}
	out := make(map[string][]models.Session, len(courseIDs))
	for _, s := range sessions {
		out[s.CourseID] = append(out[s.CourseID], s)
	}
	return out, nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
