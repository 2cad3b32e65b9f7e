package scheduler

import (
	"sort"

	"github.com/noah-isme/timetable-planner-api/internal/models"
)

// ActivePreferences drops inactive preferences and orders the rest by priority.
func ActivePreferences(prefs []models.Preference) []models.Preference {
	active := make([]models.Preference, 0, len(prefs))
	for _, p := range prefs {
		if p.Active {
			active = append(active, p)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority < active[j].Priority
	})
	return active
}

// FilterSessions removes every session matched by any of the preferences.
// Callers pass preferences already reduced by ActivePreferences.
func FilterSessions(pool []models.Session, prefs []models.Preference) []models.Session {
	if len(prefs) == 0 {
		return pool
	}
	kept := make([]models.Session, 0, len(pool))
	for _, s := range pool {
		excluded := false
		for _, p := range prefs {
			if p.Matches(s) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, s)
		}
	}
	return kept
}
