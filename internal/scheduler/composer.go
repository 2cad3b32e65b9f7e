package scheduler

import (
	"context"

	"github.com/noah-isme/timetable-planner-api/internal/models"
)

// DefaultMaxResults bounds the number of timetables a search collects when no limit is configured.
const DefaultMaxResults = 10

// Config governs composer behaviour.
type Config struct {
	// MaxResults caps discovered timetables. Zero returns no timetables; negative selects the default.
	MaxResults int
}

// Stats summarises the work done by one search.
type Stats struct {
	Courses      int `json:"courses"`
	Combinations int `json:"combinations"`
	Leaves       int `json:"leaves"`
	Found        int `json:"found"`
}

// Result is the ordered output of a search. The first timetable is the primary suggestion.
type Result struct {
	Timetables []*models.Timetable
	// Truncated is set when the search stopped before exhausting the space (cap reached or cancelled).
	Truncated bool
	Stats     Stats
}

// Composer assembles whole timetables from per-course session combinations by backtracking.
// A Composer holds no per-search state and is safe for concurrent use.
type Composer struct {
	maxResults int
}

// NewComposer builds a composer.
func NewComposer(cfg Config) *Composer {
	if cfg.MaxResults < 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	return &Composer{maxResults: cfg.MaxResults}
}

// MaxResults returns the configured cap.
func (c *Composer) MaxResults() int {
	return c.maxResults
}

// Compose searches for up to MaxResults conflict-free timetables that satisfy every course's
// requirements under the active preferences. An empty result means no feasible timetable exists.
// When ctx is cancelled the timetables found so far are returned together with ctx.Err().
func (c *Composer) Compose(ctx context.Context, courses []models.Course, prefs []models.Preference) (Result, error) {
	s := c.search(ctx, courses, prefs)
	result := Result{Timetables: s.results, Truncated: s.stopped, Stats: s.stats}
	if s.cancelled {
		return result, ctx.Err()
	}
	return result, nil
}

// coursePlan holds the enumerated combinations of one course, one entry per category.
type coursePlan struct {
	options [][][]models.Session
}

type search struct {
	ctx        context.Context
	maxResults int
	plans      []coursePlan
	working    *models.Timetable
	results    []*models.Timetable
	stats      Stats
	stopped    bool
	cancelled  bool
}

func (c *Composer) search(ctx context.Context, courses []models.Course, prefs []models.Preference) *search {
	s := &search{
		ctx:        ctx,
		maxResults: c.maxResults,
		working:    models.NewTimetable(),
		results:    make([]*models.Timetable, 0),
	}
	s.stats.Courses = len(courses)
	if s.maxResults <= 0 {
		return s
	}

	active := ActivePreferences(prefs)
	s.plans = make([]coursePlan, 0, len(courses))
	for _, course := range courses {
		plan := coursePlan{options: make([][][]models.Session, 0, len(models.Categories))}
		for _, category := range models.Categories {
			target := course.NeededHours.For(category)
			if target <= 0 {
				plan.options = append(plan.options, [][]models.Session{{}})
				continue
			}
			pool := FilterSessions(course.SessionsOf(category), active)
			combos := EnumerateCombinations(pool, target)
			s.stats.Combinations += len(combos)
			if len(combos) == 0 {
				// This course can never be satisfied, so no timetable exists.
				return s
			}
			plan.options = append(plan.options, combos)
		}
		s.plans = append(s.plans, plan)
	}

	s.placeCourse(0)
	s.stats.Found = len(s.results)
	return s
}

func (s *search) halt() bool {
	if s.stopped {
		return true
	}
	if len(s.results) >= s.maxResults {
		s.stopped = true
		return true
	}
	if s.ctx.Err() != nil {
		s.stopped = true
		s.cancelled = true
		return true
	}
	return false
}

func (s *search) placeCourse(courseIndex int) {
	if s.halt() {
		return
	}
	if courseIndex == len(s.plans) {
		s.results = append(s.results, s.working.Clone())
		return
	}
	s.chooseCategory(courseIndex, 0, nil)
}

func (s *search) chooseCategory(courseIndex, categoryIndex int, accumulated []models.Session) {
	if s.halt() {
		return
	}
	plan := s.plans[courseIndex]
	if categoryIndex == len(plan.options) {
		s.merge(courseIndex, accumulated)
		return
	}
	for _, combo := range plan.options[categoryIndex] {
		next := make([]models.Session, 0, len(accumulated)+len(combo))
		next = append(next, accumulated...)
		next = append(next, combo...)
		s.chooseCategory(courseIndex, categoryIndex+1, next)
		if s.stopped {
			return
		}
	}
}

// merge tries to add one full choice for a course to the working timetable and descends on success.
func (s *search) merge(courseIndex int, chosen []models.Session) {
	s.stats.Leaves++
	for i := 0; i < len(chosen); i++ {
		for j := i + 1; j < len(chosen); j++ {
			if models.Conflicts(chosen[i], chosen[j]) {
				return
			}
		}
	}
	for _, session := range chosen {
		if s.working.ConflictsWith(session) {
			return
		}
	}

	release := s.commit(chosen)
	defer release()
	s.placeCourse(courseIndex + 1)
}

// commit adds sessions to the working timetable and returns the matching undo.
func (s *search) commit(sessions []models.Session) (release func()) {
	for _, session := range sessions {
		s.working.Add(session)
	}
	return func() {
		for i := len(sessions) - 1; i >= 0; i-- {
			s.working.Remove(sessions[i].ID)
		}
	}
}
