package dto

// CreatePreferenceRequest adds a hard exclusion rule.
type CreatePreferenceRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=FREE_DAY AVOID_WINDOW"`
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=6"`
	Start     string `json:"start" validate:"required_if=Kind AVOID_WINDOW"`
	End       string `json:"end" validate:"required_if=Kind AVOID_WINDOW"`
	Priority  int    `json:"priority" validate:"min=0,max=1000"`
	Active    *bool  `json:"active"`
}

// UpdatePreferenceRequest toggles a preference or changes its priority.
type UpdatePreferenceRequest struct {
	Priority *int  `json:"priority" validate:"omitempty,min=0,max=1000"`
	Active   *bool `json:"active"`
}
