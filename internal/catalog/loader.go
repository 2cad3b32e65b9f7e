// Package catalog turns course and session CSV exports into validated domain objects.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/timetable-planner-api/internal/models"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
)

// CourseRow is one line of the course file.
type CourseRow struct {
	Course    string `csv:"course"`
	Name      string `csv:"name"`
	Lecture   string `csv:"lecture_hours"`
	Practical string `csv:"practical_hours"`
	Seminar   string `csv:"seminar_hours"`
	Other     string `csv:"other_hours"`
}

// SessionRow is one line of the session file. Type, day and weeks are free text.
type SessionRow struct {
	ID          string `csv:"id"`
	Course      string `csv:"course"`
	Type        string `csv:"type"`
	Day         string `csv:"day"`
	Start       string `csv:"start"`
	End         string `csv:"end"`
	Hours       string `csv:"hours"`
	Weeks       string `csv:"weeks"`
	Capacity    string `csv:"capacity"`
	CapacityMax string `csv:"capacity_max"`
	Room        string `csv:"room"`
	Instructor  string `csv:"instructor"`
	Note        string `csv:"note"`
}

// Loader reads catalog CSV files.
type Loader struct {
	comma rune
}

// NewLoader builds a loader for the given field delimiter. Zero means comma.
func NewLoader(comma rune) *Loader {
	if comma == 0 {
		comma = ','
	}
	return &Loader{comma: comma}
}

// LoadFiles opens both files and delegates to Load.
func (l *Loader) LoadFiles(coursesPath, sessionsPath string) ([]models.Course, error) {
	coursesFile, err := os.Open(coursesPath)
	if err != nil {
		return nil, fmt.Errorf("open courses file: %w", err)
	}
	defer coursesFile.Close()

	sessionsFile, err := os.Open(sessionsPath)
	if err != nil {
		return nil, fmt.Errorf("open sessions file: %w", err)
	}
	defer sessionsFile.Close()

	return l.Load(coursesFile, sessionsFile)
}

// Load parses both CSV streams and assembles courses in course-file order.
// Sessions keep their session-file order inside each course.
func (l *Loader) Load(courses, sessions io.Reader) ([]models.Course, error) {
	var courseRows []*CourseRow
	if err := gocsv.UnmarshalCSV(l.reader(courses), &courseRows); err != nil {
		return nil, appErrors.Validation(err, "parse courses csv")
	}
	var sessionRows []*SessionRow
	if err := gocsv.UnmarshalCSV(l.reader(sessions), &sessionRows); err != nil {
		return nil, appErrors.Validation(err, "parse sessions csv")
	}

	byCourse := make(map[string][]models.Session, len(courseRows))
	owners := make(map[string]string, len(sessionRows))
	for i, row := range sessionRows {
		session, err := row.toSession()
		if err != nil {
			return nil, rowError("sessions", i, err)
		}
		if owner, ok := owners[session.ID]; ok {
			return nil, rowError("sessions", i, fmt.Errorf("duplicate session %s (already used by %s)", session.ID, owner))
		}
		owners[session.ID] = session.CourseID
		byCourse[session.CourseID] = append(byCourse[session.CourseID], session)
	}

	out := make([]models.Course, 0, len(courseRows))
	known := make(map[string]bool, len(courseRows))
	for i, row := range courseRows {
		needed, err := row.neededHours()
		if err != nil {
			return nil, rowError("courses", i, err)
		}
		id := strings.TrimSpace(row.Course)
		if known[id] {
			return nil, rowError("courses", i, fmt.Errorf("duplicate course %s", id))
		}
		known[id] = true

		course, err := models.NewCourse(id, row.Name, needed, byCourse[id])
		if err != nil {
			return nil, rowError("courses", i, err)
		}
		out = append(out, course)
	}

	var orphans []string
	for id := range byCourse {
		if !known[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		sort.Strings(orphans)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("sessions reference unknown courses: %s", strings.Join(orphans, ", ")))
	}

	return out, nil
}

func (l *Loader) reader(in io.Reader) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.Comma = l.comma
	r.TrimLeadingSpace = true
	return r
}

func (row *CourseRow) neededHours() (models.NeededHours, error) {
	needed := models.NeededHours{}
	columns := []struct {
		category models.Category
		raw      string
	}{
		{models.CategoryLecture, row.Lecture},
		{models.CategoryPractical, row.Practical},
		{models.CategorySeminar, row.Seminar},
		{models.CategoryOther, row.Other},
	}
	for _, col := range columns {
		hours, err := parseNumber(col.raw)
		if err != nil {
			return nil, fmt.Errorf("%s hours: %w", strings.ToLower(string(col.category)), err)
		}
		if hours != 0 {
			needed[col.category] = hours
		}
	}
	return needed, nil
}

func (row *SessionRow) toSession() (models.Session, error) {
	category, err := ParseCategory(row.Type)
	if err != nil {
		return models.Session{}, err
	}
	day, err := ParseDay(row.Day)
	if err != nil {
		return models.Session{}, err
	}
	recurrence, err := ParseRecurrence(row.Weeks)
	if err != nil {
		return models.Session{}, err
	}
	hours, err := parseNumber(row.Hours)
	if err != nil {
		return models.Session{}, fmt.Errorf("hours: %w", err)
	}
	capacity, err := parseCount(row.Capacity)
	if err != nil {
		return models.Session{}, fmt.Errorf("capacity: %w", err)
	}
	capacityMax, err := parseCount(row.CapacityMax)
	if err != nil {
		return models.Session{}, fmt.Errorf("capacity_max: %w", err)
	}

	return models.NewSession(models.SessionInput{
		ID:              row.ID,
		CourseID:        row.Course,
		Category:        category,
		DayOfWeek:       day,
		Start:           row.Start,
		End:             row.End,
		DurationHours:   hours,
		Recurrence:      recurrence,
		CapacityCurrent: capacity,
		CapacityMax:     capacityMax,
		Room:            strings.TrimSpace(row.Room),
		Instructor:      strings.TrimSpace(row.Instructor),
		Note:            strings.TrimSpace(row.Note),
	})
}

// rowError reports a 1-based data line number; the header is line 1.
func rowError(file string, index int, err error) error {
	msg := fmt.Sprintf("%s line %d: %v", file, index+2, err)
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		msg = fmt.Sprintf("%s line %d: %s", file, index+2, appErr.Message)
	}
	return appErrors.Validation(err, msg)
}

// parseNumber accepts both decimal separators; an empty cell is zero.
func parseNumber(raw string) (float64, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative number %q", raw)
	}
	return v, nil
}

func parseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", raw)
	}
	return v, nil
}
