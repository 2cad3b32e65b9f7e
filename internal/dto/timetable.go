package dto

import (
	"github.com/noah-isme/timetable-planner-api/internal/models"
	"github.com/noah-isme/timetable-planner-api/internal/scheduler"
)

// GenerateTimetablesRequest asks for conflict-free timetables over the selected courses.
// MaxResults nil uses the configured default; zero is a valid explicit cap.
type GenerateTimetablesRequest struct {
	CourseIDs          []string                  `json:"courseIds" validate:"required,min=1,dive,required"`
	MaxResults         *int                      `json:"maxResults" validate:"omitempty,min=0,max=50"`
	Preferences        []CreatePreferenceRequest `json:"preferences" validate:"dive"`
	IncludeStoredPrefs bool                      `json:"includeStoredPreferences"`
}

// GeneratedTimetable is one suggestion.
type GeneratedTimetable struct {
	SessionIDs []string         `json:"sessionIds"`
	Sessions   []models.Session `json:"sessions"`
}

// GenerateTimetablesResponse lists suggestions in discovery order. Primary is the first, if any.
type GenerateTimetablesResponse struct {
	Timetables []GeneratedTimetable `json:"timetables"`
	Primary    *GeneratedTimetable  `json:"primary,omitempty"`
	Truncated  bool                 `json:"truncated"`
	Cached     bool                 `json:"cached"`
	Stats      scheduler.Stats      `json:"stats"`
}

// SaveTimetableRequest stores a chosen timetable.
type SaveTimetableRequest struct {
	Label      string   `json:"label" validate:"required,max=120"`
	SessionIDs []string `json:"sessionIds" validate:"required,min=1,dive,required"`
}

// SavedTimetableResponse returns a stored timetable with its sessions resolved.
type SavedTimetableResponse struct {
	models.SavedTimetable
	Sessions []models.Session `json:"sessions"`
}

// ExportQuery selects the export format.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
