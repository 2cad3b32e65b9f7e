package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-planner-api/internal/models"
)

func session(t *testing.T, id string, category models.Category, day int, start, end string, hours float64, rec models.Recurrence) models.Session {
	t.Helper()
	s, err := models.NewSession(models.SessionInput{
		ID:            id,
		CourseID:      "KIV/PPA1",
		Category:      category,
		DayOfWeek:     day,
		Start:         start,
		End:           end,
		DurationHours: hours,
		Recurrence:    rec,
	})
	require.NoError(t, err)
	return s
}

func ids(combos [][]models.Session) []string {
	out := make([]string, 0, len(combos))
	for _, combo := range combos {
		out = append(out, signature(combo))
	}
	return out
}

func sumHours(combo []models.Session) float64 {
	var total float64
	for _, s := range combo {
		total += s.DurationHours
	}
	return total
}

func TestEnumerateCombinationsNonPositiveTarget(t *testing.T) {
	pool := []models.Session{session(t, "a", models.CategoryLecture, models.Monday, "08:00", "10:00", 2, models.RecurrenceEveryWeek)}

	combos := EnumerateCombinations(pool, 0)
	require.Len(t, combos, 1)
	assert.Empty(t, combos[0])

	combos = EnumerateCombinations(nil, -1)
	require.Len(t, combos, 1)
	assert.Empty(t, combos[0])
}

func TestEnumerateCombinationsSingleSessionSatisfies(t *testing.T) {
	pool := []models.Session{
		session(t, "a", models.CategoryLecture, models.Monday, "08:00", "09:00", 1, models.RecurrenceEveryWeek),
		session(t, "b", models.CategoryLecture, models.Tuesday, "08:00", "10:00", 2, models.RecurrenceEveryWeek),
		session(t, "c", models.CategoryLecture, models.Wednesday, "08:00", "09:00", 1, models.RecurrenceEveryWeek),
	}

	combos := EnumerateCombinations(pool, 2)

	assert.Equal(t, []string{
		signature([]models.Session{pool[0], pool[1]}),
		signature([]models.Session{pool[0], pool[2]}),
		signature([]models.Session{pool[1]}),
	}, ids(combos))
}

func TestEnumerateCombinationsStopsExtendingSatisfiedBranch(t *testing.T) {
	var pool []models.Session
	for i := 0; i < 6; i++ {
		pool = append(pool, session(t, fmt.Sprintf("s%d", i), models.CategoryPractical, i%5, "08:00", "09:00", 1, models.RecurrenceEveryWeek))
	}

	combos := EnumerateCombinations(pool, 2)

	// every pair, never a triple
	assert.Len(t, combos, 15)
	for _, combo := range combos {
		assert.Len(t, combo, 2)
	}
}

func TestEnumerateCombinationsMinimality(t *testing.T) {
	durations := []float64{0.5, 1, 1.5, 2, 0.75, 3}
	var pool []models.Session
	for i, d := range durations {
		pool = append(pool, session(t, fmt.Sprintf("s%d", i), models.CategorySeminar, models.Thursday, "08:00", "11:00", d, models.RecurrenceEveryWeek))
	}
	const target = 2.5

	combos := EnumerateCombinations(pool, target)
	require.NotEmpty(t, combos)

	seen := map[string]bool{}
	for _, combo := range combos {
		key := signature(combo)
		assert.False(t, seen[key], "duplicate combination %q", key)
		seen[key] = true

		assert.GreaterOrEqual(t, sumHours(combo)+hoursEpsilon, target)
		// dropping the last added session must fall short of the target
		assert.Less(t, sumHours(combo[:len(combo)-1])+hoursEpsilon, target)
	}
	assert.True(t, seen[signature([]models.Session{pool[5]})], "single 3h session must be a combination")
}

func TestEnumerateCombinationsUnreachableTarget(t *testing.T) {
	pool := []models.Session{
		session(t, "a", models.CategoryLecture, models.Monday, "08:00", "09:00", 1, models.RecurrenceEveryWeek),
		session(t, "b", models.CategoryLecture, models.Tuesday, "08:00", "09:00", 1, models.RecurrenceEveryWeek),
	}
	assert.Empty(t, EnumerateCombinations(pool, 3))
	assert.Empty(t, EnumerateCombinations(nil, 1))
}

func TestEnumerateCombinationsDeduplicatesRepeatedIDs(t *testing.T) {
	a := session(t, "a", models.CategoryLecture, models.Monday, "08:00", "10:00", 2, models.RecurrenceEveryWeek)
	combos := EnumerateCombinations([]models.Session{a, a}, 2)
	assert.Len(t, combos, 1)
}

func TestFilterSessions(t *testing.T) {
	mon := session(t, "mon", models.CategoryLecture, models.Monday, "08:00", "10:00", 2, models.RecurrenceEveryWeek)
	tueEarly := session(t, "tue-early", models.CategoryLecture, models.Tuesday, "08:00", "10:00", 2, models.RecurrenceEveryWeek)
	tueLate := session(t, "tue-late", models.CategoryLecture, models.Tuesday, "16:00", "18:00", 2, models.RecurrenceEveryWeek)
	pool := []models.Session{mon, tueEarly, tueLate}

	free, err := models.NewFreeDay(models.Monday, 2)
	require.NoError(t, err)
	window, err := models.NewAvoidWindow(models.Tuesday, "15:00", "20:00", 1)
	require.NoError(t, err)
	inactive, err := models.NewFreeDay(models.Tuesday, 0)
	require.NoError(t, err)
	inactive.Active = false

	active := ActivePreferences([]models.Preference{free, window, inactive})
	require.Len(t, active, 2)
	assert.Equal(t, models.PreferenceAvoidWindow, active[0].Kind)

	kept := FilterSessions(pool, active)
	require.Len(t, kept, 1)
	assert.Equal(t, "tue-early", kept[0].ID)

	reversed := FilterSessions(pool, []models.Preference{active[1], active[0]})
	assert.Equal(t, kept, reversed)
	assert.Equal(t, pool, FilterSessions(pool, nil))
}
