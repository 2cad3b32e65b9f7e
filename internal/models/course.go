package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NeededHours maps a category to the cumulative hours a timetable must contain for it.
// Missing categories require zero hours.
type NeededHours map[Category]float64

// For returns the requirement for a category.
func (n NeededHours) For(c Category) float64 {
	if n == nil {
		return 0
	}
	return n[c]
}

// Value implements driver.Valuer storing the map as JSON.
func (n NeededHours) Value() (driver.Value, error) {
	if n == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[Category]float64(n))
}

// Scan implements sql.Scanner.
func (n *NeededHours) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*n = NeededHours{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan needed hours: unsupported type %T", src)
	}
	decoded := map[Category]float64{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("scan needed hours: %w", err)
	}
	*n = decoded
	return nil
}

// Course is an enrollable subject with its candidate sessions.
type Course struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	NeededHours NeededHours `db:"needed_hours" json:"neededHours"`
	Sessions    []Session   `db:"-" json:"sessions"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// NewCourse validates requirements and session ownership.
func NewCourse(id, name string, needed NeededHours, sessions []Session) (Course, error) {
	c := Course{
		ID:          strings.TrimSpace(id),
		Name:        strings.TrimSpace(name),
		NeededHours: NeededHours{},
		Sessions:    append([]Session(nil), sessions...),
	}
	for category, hours := range needed {
		c.NeededHours[category] = hours
	}
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	return c, nil
}

// Validate checks the course invariants.
func (c Course) Validate() error {
	if c.ID == "" {
		return invalid("course id is required")
	}
	for category, hours := range c.NeededHours {
		if !category.Valid() {
			return invalid("course %s: unknown category %q", c.ID, category)
		}
		if hours < 0 {
			return invalid("course %s: negative requirement for %s", c.ID, category)
		}
	}
	seen := make(map[string]bool, len(c.Sessions))
	for _, s := range c.Sessions {
		if err := s.Validate(); err != nil {
			return err
		}
		if s.CourseID != c.ID {
			return invalid("course %s: session %s belongs to %s", c.ID, s.ID, s.CourseID)
		}
		if seen[s.ID] {
			return invalid("course %s: duplicate session %s", c.ID, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// SessionsOf returns the sessions of a category in catalog order.
func (c Course) SessionsOf(category Category) []Session {
	var out []Session
	for _, s := range c.Sessions {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}
