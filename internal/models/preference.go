package models

import "time"

// PreferenceKind identifies the exclusion rule of a preference.
type PreferenceKind string

const (
	PreferenceFreeDay     PreferenceKind = "FREE_DAY"
	PreferenceAvoidWindow PreferenceKind = "AVOID_WINDOW"
)

// Preference is a hard exclusion rule applied before the search.
// Priority only orders preferences; it never changes which sessions are excluded.
type Preference struct {
	ID          string         `db:"id" json:"id"`
	Kind        PreferenceKind `db:"kind" json:"kind"`
	DayOfWeek   int            `db:"day_of_week" json:"dayOfWeek"`
	StartMinute int            `db:"start_minute" json:"startMinute"`
	EndMinute   int            `db:"end_minute" json:"endMinute"`
	Priority    int            `db:"priority" json:"priority"`
	Active      bool           `db:"active" json:"active"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// NewFreeDay keeps a whole day free of sessions.
func NewFreeDay(day, priority int) (Preference, error) {
	p := Preference{Kind: PreferenceFreeDay, DayOfWeek: day, EndMinute: minutesPerDay, Priority: priority, Active: true}
	return p, p.Validate()
}

// NewAvoidWindow excludes sessions overlapping [start,end) on a day.
func NewAvoidWindow(day int, start, end string, priority int) (Preference, error) {
	startMinute, err := ParseClock(start)
	if err != nil {
		return Preference{}, invalid("avoid window start: %v", err)
	}
	endMinute, err := ParseClock(end)
	if err != nil {
		return Preference{}, invalid("avoid window end: %v", err)
	}
	p := Preference{
		Kind:        PreferenceAvoidWindow,
		DayOfWeek:   day,
		StartMinute: startMinute,
		EndMinute:   endMinute,
		Priority:    priority,
		Active:      true,
	}
	return p, p.Validate()
}

// Validate checks the preference invariants.
func (p Preference) Validate() error {
	if p.DayOfWeek < Monday || p.DayOfWeek > Sunday {
		return invalid("preference day of week %d out of range", p.DayOfWeek)
	}
	switch p.Kind {
	case PreferenceFreeDay:
		return nil
	case PreferenceAvoidWindow:
		if p.StartMinute < 0 || p.EndMinute > minutesPerDay || p.EndMinute <= p.StartMinute {
			return invalid("avoid window must end after it starts within a day")
		}
		return nil
	}
	return invalid("unknown preference kind %q", p.Kind)
}

// Matches reports whether the preference excludes the session.
func (p Preference) Matches(s Session) bool {
	if s.DayOfWeek != p.DayOfWeek {
		return false
	}
	switch p.Kind {
	case PreferenceFreeDay:
		return true
	case PreferenceAvoidWindow:
		return s.Overlaps(p.StartMinute, p.EndMinute)
	}
	return false
}
