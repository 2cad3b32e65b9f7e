package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
)

// Timetable is an ordered set of selected sessions keyed by id.
// The scheduler mutates it through Add/Remove only; a duplicate add or a stray remove is a bug.
type Timetable struct {
	sessions []Session
	index    map[string]int
}

// NewTimetable returns an empty timetable.
func NewTimetable() *Timetable {
	return &Timetable{index: make(map[string]int)}
}

// Add appends a session. It panics when the id is already present.
func (t *Timetable) Add(s Session) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, ok := t.index[s.ID]; ok {
		panic(fmt.Sprintf("timetable: session %s added twice", s.ID))
	}
	t.index[s.ID] = len(t.sessions)
	t.sessions = append(t.sessions, s)
}

// Remove drops a session. It panics when the id is not present.
func (t *Timetable) Remove(id string) {
	pos, ok := t.index[id]
	if !ok {
		panic(fmt.Sprintf("timetable: session %s removed but not present", id))
	}
	copy(t.sessions[pos:], t.sessions[pos+1:])
	t.sessions = t.sessions[:len(t.sessions)-1]
	delete(t.index, id)
	for i := pos; i < len(t.sessions); i++ {
		t.index[t.sessions[i].ID] = i
	}
}

// Has reports whether the session id is selected.
func (t *Timetable) Has(id string) bool {
	_, ok := t.index[id]
	return ok
}

// Len returns the number of selected sessions.
func (t *Timetable) Len() int {
	return len(t.sessions)
}

// Sessions returns a copy of the selected sessions in insertion order.
func (t *Timetable) Sessions() []Session {
	return append([]Session(nil), t.sessions...)
}

// IDs returns the selected session ids in insertion order.
func (t *Timetable) IDs() []string {
	ids := make([]string, len(t.sessions))
	for i, s := range t.sessions {
		ids[i] = s.ID
	}
	return ids
}

// ConflictsWith reports whether the session collides with any selected session.
func (t *Timetable) ConflictsWith(s Session) bool {
	for _, existing := range t.sessions {
		if Conflicts(existing, s) {
			return true
		}
	}
	return false
}

// HoursFor sums the duration of a course's selected sessions in a category.
func (t *Timetable) HoursFor(courseID string, category Category) float64 {
	var total float64
	for _, s := range t.sessions {
		if s.CourseID == courseID && s.Category == category {
			total += s.DurationHours
		}
	}
	return total
}

// Clone returns an independent copy.
func (t *Timetable) Clone() *Timetable {
	out := &Timetable{
		sessions: append([]Session(nil), t.sessions...),
		index:    make(map[string]int, len(t.index)),
	}
	for id, pos := range t.index {
		out.index[id] = pos
	}
	return out
}

// Chronological returns the sessions ordered by day and start time.
func (t *Timetable) Chronological() []Session {
	out := t.Sessions()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		if out[i].StartMinute != out[j].StartMinute {
			return out[i].StartMinute < out[j].StartMinute
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SavedTimetable is a timetable the student chose to keep.
type SavedTimetable struct {
	ID         string         `db:"id" json:"id"`
	Label      string         `db:"label" json:"label"`
	SessionIDs pq.StringArray `db:"session_ids" json:"sessionIds"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}
