package dto

import "github.com/noah-isme/timetable-planner-api/internal/models"

// SessionRequest describes one candidate session of a course.
type SessionRequest struct {
	ID              string  `json:"id" validate:"required,max=64"`
	Category        string  `json:"category" validate:"required,oneof=LECTURE PRACTICAL SEMINAR OTHER"`
	DayOfWeek       int     `json:"dayOfWeek" validate:"min=0,max=6"`
	Start           string  `json:"start" validate:"required"`
	End             string  `json:"end" validate:"required"`
	DurationHours   float64 `json:"durationHours" validate:"min=0"`
	Recurrence      string  `json:"recurrence" validate:"omitempty,oneof=EVERY_WEEK ODD_WEEK EVEN_WEEK ONE_TIME"`
	CapacityCurrent int     `json:"capacityCurrent" validate:"min=0"`
	CapacityMax     int     `json:"capacityMax" validate:"min=0"`
	Room            string  `json:"room" validate:"max=64"`
	Instructor      string  `json:"instructor" validate:"max=128"`
	Note            string  `json:"note" validate:"max=512"`
}

// UpsertCourseRequest creates or fully replaces a course and its sessions.
type UpsertCourseRequest struct {
	Name        string             `json:"name" validate:"required,max=255"`
	NeededHours map[string]float64 `json:"neededHours" validate:"dive,keys,oneof=LECTURE PRACTICAL SEMINAR OTHER,endkeys,min=0"`
	Sessions    []SessionRequest   `json:"sessions" validate:"dive"`
}

// CourseQuery filters the course listing.
type CourseQuery struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// CourseList is a page of courses.
type CourseList struct {
	Items    []models.Course `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// ImportResult summarises a CSV import.
type ImportResult struct {
	Courses  int `json:"courses"`
	Sessions int `json:"sessions"`
}
