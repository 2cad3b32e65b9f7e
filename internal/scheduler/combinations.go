package scheduler

import (
	"sort"
	"strings"

	"github.com/noah-isme/timetable-planner-api/internal/models"
)

// hoursEpsilon absorbs float drift when fractional durations are summed.
const hoursEpsilon = 1e-9

// EnumerateCombinations returns every subset of pool, built over increasing indices, whose summed
// duration reaches targetHours. A branch is recorded and no longer extended as soon as the target is
// reached. A non-positive target yields a single empty combination. Conflicts are not checked here.
func EnumerateCombinations(pool []models.Session, targetHours float64) [][]models.Session {
	if targetHours <= 0 {
		return [][]models.Session{{}}
	}

	// remaining[i] is the duration still available from pool[i:].
	remaining := make([]float64, len(pool)+1)
	for i := len(pool) - 1; i >= 0; i-- {
		remaining[i] = remaining[i+1] + pool[i].DurationHours
	}

	var (
		result  [][]models.Session
		seen    = make(map[string]bool)
		current = make([]models.Session, 0, len(pool))
	)

	var walk func(start int, sum float64)
	walk = func(start int, sum float64) {
		for i := start; i < len(pool); i++ {
			if sum+remaining[i]+hoursEpsilon < targetHours {
				return
			}
			current = append(current, pool[i])
			next := sum + pool[i].DurationHours
			if next+hoursEpsilon >= targetHours {
				key := signature(current)
				if !seen[key] {
					seen[key] = true
					result = append(result, append([]models.Session(nil), current...))
				}
			} else {
				walk(i+1, next)
			}
			current = current[:len(current)-1]
		}
	}
	walk(0, 0)
	return result
}

func signature(sessions []models.Session) string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, "\x00")
}
