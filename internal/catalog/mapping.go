package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/timetable-planner-api/internal/models"
)

var categoryAliases = map[string]models.Category{
	"lecture":   models.CategoryLecture,
	"přednáška": models.CategoryLecture,
	"prednaska": models.CategoryLecture,
	"př":        models.CategoryLecture,
	"pr":        models.CategoryLecture,
	"p":         models.CategoryLecture,
	"practical": models.CategoryPractical,
	"lab":       models.CategoryPractical,
	"cvičení":   models.CategoryPractical,
	"cviceni":   models.CategoryPractical,
	"cv":        models.CategoryPractical,
	"c":         models.CategoryPractical,
	"seminar":   models.CategorySeminar,
	"seminář":   models.CategorySeminar,
	"se":        models.CategorySeminar,
	"s":         models.CategorySeminar,
	"other":     models.CategoryOther,
	"jiné":      models.CategoryOther,
	"jine":      models.CategoryOther,
}

var dayAliases = map[string]int{
	"mon": models.Monday, "monday": models.Monday, "po": models.Monday, "pondělí": models.Monday,
	"tue": models.Tuesday, "tuesday": models.Tuesday, "út": models.Tuesday, "ut": models.Tuesday, "úterý": models.Tuesday,
	"wed": models.Wednesday, "wednesday": models.Wednesday, "st": models.Wednesday, "středa": models.Wednesday,
	"thu": models.Thursday, "thursday": models.Thursday, "čt": models.Thursday, "ct": models.Thursday, "čtvrtek": models.Thursday,
	"fri": models.Friday, "friday": models.Friday, "pá": models.Friday, "pa": models.Friday, "pátek": models.Friday,
	"sat": models.Saturday, "saturday": models.Saturday, "so": models.Saturday, "sobota": models.Saturday,
	"sun": models.Sunday, "sunday": models.Sunday, "ne": models.Sunday, "neděle": models.Sunday,
}

var recurrenceAliases = map[string]models.Recurrence{
	"":            models.RecurrenceEveryWeek,
	"every":       models.RecurrenceEveryWeek,
	"weekly":      models.RecurrenceEveryWeek,
	"každý":       models.RecurrenceEveryWeek,
	"kazdy":       models.RecurrenceEveryWeek,
	"každý týden": models.RecurrenceEveryWeek,
	"odd":         models.RecurrenceOddWeek,
	"lichý":       models.RecurrenceOddWeek,
	"lichy":       models.RecurrenceOddWeek,
	"lichý týden": models.RecurrenceOddWeek,
	"even":        models.RecurrenceEvenWeek,
	"sudý":        models.RecurrenceEvenWeek,
	"sudy":        models.RecurrenceEvenWeek,
	"sudý týden":  models.RecurrenceEvenWeek,
	"once":        models.RecurrenceOneTime,
	"one-time":    models.RecurrenceOneTime,
	"jednorázově": models.RecurrenceOneTime,
	"jednorazove": models.RecurrenceOneTime,
	"jednorázová": models.RecurrenceOneTime,
}

// ParseCategory maps a free-text session type onto a category.
// Canonical enum names are accepted as well; unrecognised non-empty text becomes OTHER.
func ParseCategory(raw string) (models.Category, error) {
	key := normalize(raw)
	if key == "" {
		return "", fmt.Errorf("session type is required")
	}
	if c := models.Category(strings.ToUpper(key)); c.Valid() {
		return c, nil
	}
	if c, ok := categoryAliases[key]; ok {
		return c, nil
	}
	return models.CategoryOther, nil
}

// ParseDay accepts a weekday index 0-6 (Monday first) or an English or Czech name.
func ParseDay(raw string) (int, error) {
	key := normalize(raw)
	if n, err := strconv.Atoi(key); err == nil {
		if n < models.Monday || n > models.Sunday {
			return 0, fmt.Errorf("day %d out of range", n)
		}
		return n, nil
	}
	if d, ok := dayAliases[key]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown day %q", raw)
}

// ParseRecurrence maps week-pattern text onto a recurrence. Empty means every week.
func ParseRecurrence(raw string) (models.Recurrence, error) {
	key := normalize(raw)
	if r := models.Recurrence(strings.ToUpper(key)); r.Valid() {
		return r, nil
	}
	if r, ok := recurrenceAliases[key]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown week pattern %q", raw)
}

func normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSuffix(strings.TrimSpace(raw), "."))), " ")
}
