package models

import (
	"fmt"
	"strconv"
	"strings"

	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
)

// Category classifies a session inside its course.
type Category string

const (
	CategoryLecture   Category = "LECTURE"
	CategoryPractical Category = "PRACTICAL"
	CategorySeminar   Category = "SEMINAR"
	CategoryOther     Category = "OTHER"
)

// Categories lists every category in the order the scheduler walks them.
var Categories = []Category{CategoryLecture, CategoryPractical, CategorySeminar, CategoryOther}

// Valid reports whether the category belongs to the closed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryLecture, CategoryPractical, CategorySeminar, CategoryOther:
		return true
	}
	return false
}

// Recurrence is the weekly pattern of a session.
type Recurrence string

const (
	RecurrenceEveryWeek Recurrence = "EVERY_WEEK"
	RecurrenceOddWeek   Recurrence = "ODD_WEEK"
	RecurrenceEvenWeek  Recurrence = "EVEN_WEEK"
	RecurrenceOneTime   Recurrence = "ONE_TIME"
)

// Valid reports whether the recurrence belongs to the closed set.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceEveryWeek, RecurrenceOddWeek, RecurrenceEvenWeek, RecurrenceOneTime:
		return true
	}
	return false
}

func (r Recurrence) parity() bool {
	return r == RecurrenceOddWeek || r == RecurrenceEvenWeek
}

// Weekday indexes, Monday first.
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

const minutesPerDay = 24 * 60

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the English name of a weekday index.
func DayName(day int) string {
	if day < 0 || day >= len(dayNames) {
		return fmt.Sprintf("day-%d", day)
	}
	return dayNames[day]
}

// Session is one concrete meeting slot of a course. Values are immutable once built by NewSession.
type Session struct {
	ID              string     `db:"id" json:"id"`
	CourseID        string     `db:"course_id" json:"courseId"`
	Category        Category   `db:"category" json:"category"`
	DayOfWeek       int        `db:"day_of_week" json:"dayOfWeek"`
	StartMinute     int        `db:"start_minute" json:"startMinute"`
	EndMinute       int        `db:"end_minute" json:"endMinute"`
	DurationHours   float64    `db:"duration_hours" json:"durationHours"`
	Recurrence      Recurrence `db:"recurrence" json:"recurrence"`
	CapacityCurrent int        `db:"capacity_current" json:"capacityCurrent"`
	CapacityMax     int        `db:"capacity_max" json:"capacityMax"`
	Room            string     `db:"room" json:"room"`
	Instructor      string     `db:"instructor" json:"instructor"`
	Note            string     `db:"note" json:"note"`
}

// SessionInput carries the raw fields used to build a Session.
type SessionInput struct {
	ID              string
	CourseID        string
	Category        Category
	DayOfWeek       int
	Start           string
	End             string
	DurationHours   float64
	Recurrence      Recurrence
	CapacityCurrent int
	CapacityMax     int
	Room            string
	Instructor      string
	Note            string
}

// NewSession validates the input and returns an immutable session.
// A zero DurationHours is derived from the wall-clock interval.
func NewSession(in SessionInput) (Session, error) {
	start, err := ParseClock(in.Start)
	if err != nil {
		return Session{}, invalid("session %s: start: %v", in.ID, err)
	}
	end, err := ParseClock(in.End)
	if err != nil {
		return Session{}, invalid("session %s: end: %v", in.ID, err)
	}
	s := Session{
		ID:              strings.TrimSpace(in.ID),
		CourseID:        strings.TrimSpace(in.CourseID),
		Category:        in.Category,
		DayOfWeek:       in.DayOfWeek,
		StartMinute:     start,
		EndMinute:       end,
		DurationHours:   in.DurationHours,
		Recurrence:      in.Recurrence,
		CapacityCurrent: in.CapacityCurrent,
		CapacityMax:     in.CapacityMax,
		Room:            in.Room,
		Instructor:      in.Instructor,
		Note:            in.Note,
	}
	if s.Recurrence == "" {
		s.Recurrence = RecurrenceEveryWeek
	}
	if s.DurationHours == 0 && end > start {
		s.DurationHours = float64(end-start) / 60
	}
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Validate checks the invariants of a session loaded from storage or built by hand.
func (s Session) Validate() error {
	switch {
	case s.ID == "":
		return invalid("session id is required")
	case s.CourseID == "":
		return invalid("session %s: course id is required", s.ID)
	case !s.Category.Valid():
		return invalid("session %s: unknown category %q", s.ID, s.Category)
	case s.DayOfWeek < Monday || s.DayOfWeek > Sunday:
		return invalid("session %s: day of week %d out of range", s.ID, s.DayOfWeek)
	case s.StartMinute < 0 || s.EndMinute > minutesPerDay:
		return invalid("session %s: time outside of a day", s.ID)
	case s.EndMinute <= s.StartMinute:
		return invalid("session %s: end must be after start", s.ID)
	case !s.Recurrence.Valid():
		return invalid("session %s: unknown recurrence %q", s.ID, s.Recurrence)
	case s.DurationHours < 0:
		return invalid("session %s: duration must not be negative", s.ID)
	case s.CapacityCurrent < 0 || s.CapacityMax < 0:
		return invalid("session %s: capacity must not be negative", s.ID)
	}
	return nil
}

// Overlaps reports whether the session's [start,end) interval intersects [start,end).
func (s Session) Overlaps(start, end int) bool {
	return s.StartMinute < end && start < s.EndMinute
}

// Conflicts decides whether two sessions cannot both be attended.
// Sessions on different days or disjoint intervals never conflict. Overlapping sessions conflict
// unless one runs on odd weeks and the other on even weeks. Unknown recurrences count as weekly.
func Conflicts(a, b Session) bool {
	if a.DayOfWeek != b.DayOfWeek {
		return false
	}
	if !a.Overlaps(b.StartMinute, b.EndMinute) {
		return false
	}
	if !a.Recurrence.parity() || !b.Recurrence.parity() {
		return true
	}
	return a.Recurrence == b.Recurrence
}

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" is accepted as end of day.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	if hours < 0 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	total := hours*60 + minutes
	if total > minutesPerDay {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	return total, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func invalid(format string, args ...any) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf(format, args...))
}
