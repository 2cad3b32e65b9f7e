package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-planner-api/internal/models"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
)

const coursesCSV = `course,name,lecture_hours,practical_hours,seminar_hours,other_hours
KIV/PPA1,Počítače a programování 1,2,"1,5",,
KMA/MA1,Matematická analýza 1,,,2,
`

const sessionsCSV = `id,course,type,day,start,end,hours,weeks,capacity,capacity_max,room,instructor,note
ppa1-l1,KIV/PPA1,Přednáška,Po,08:25,10:05,2,,120,150,EP 130,Herout,
ppa1-c1,KIV/PPA1,cvičení,Út,10:00,11:30,,lichý,20,24,UL 408,,
ppa1-c2,KIV/PPA1,Cv.,3,12:00,13:30,,sudý týden,,,UL 408,,
ma1-s1,KMA/MA1,seminar,Thursday,14:00,16:00,,ODD_WEEK,,,,,bring notes
`

func TestLoadBuildsCourses(t *testing.T) {
	courses, err := NewLoader(',').Load(strings.NewReader(coursesCSV), strings.NewReader(sessionsCSV))
	require.NoError(t, err)
	require.Len(t, courses, 2)

	ppa := courses[0]
	assert.Equal(t, "KIV/PPA1", ppa.ID)
	assert.Equal(t, 2.0, ppa.NeededHours.For(models.CategoryLecture))
	assert.Equal(t, 1.5, ppa.NeededHours.For(models.CategoryPractical))
	assert.Zero(t, ppa.NeededHours.For(models.CategorySeminar))
	require.Len(t, ppa.Sessions, 3)

	lecture := ppa.Sessions[0]
	assert.Equal(t, models.CategoryLecture, lecture.Category)
	assert.Equal(t, models.Monday, lecture.DayOfWeek)
	assert.Equal(t, 8*60+25, lecture.StartMinute)
	assert.Equal(t, models.RecurrenceEveryWeek, lecture.Recurrence)
	assert.Equal(t, 150, lecture.CapacityMax)

	assert.Equal(t, models.RecurrenceOddWeek, ppa.Sessions[1].Recurrence)
	assert.Equal(t, 1.5, ppa.Sessions[1].DurationHours)
	assert.Equal(t, models.Thursday, ppa.Sessions[2].DayOfWeek)
	assert.Equal(t, models.RecurrenceEvenWeek, ppa.Sessions[2].Recurrence)

	ma := courses[1]
	require.Len(t, ma.Sessions, 1)
	assert.Equal(t, models.CategorySeminar, ma.Sessions[0].Category)
	assert.Equal(t, "bring notes", ma.Sessions[0].Note)
}

func TestLoadSemicolonDelimited(t *testing.T) {
	courses := "course;name;lecture_hours;practical_hours;seminar_hours;other_hours\nX;Test;1;;;\n"
	sessions := "id;course;type;day;start;end;hours;weeks;capacity;capacity_max;room;instructor;note\nx1;X;P;0;08:00;09:00;;;;;;;\n"

	out, err := NewLoader(';').Load(strings.NewReader(courses), strings.NewReader(sessions))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.CategoryLecture, out[0].Sessions[0].Category)
}

func TestLoadRejectsBadRows(t *testing.T) {
	header := "id,course,type,day,start,end,hours,weeks,capacity,capacity_max,room,instructor,note\n"
	cases := map[string]string{
		"unknown day":       header + "a,KIV/PPA1,lecture,Funday,08:00,09:00,,,,,,,\n",
		"bad clock":         header + "a,KIV/PPA1,lecture,Po,8h,09:00,,,,,,,\n",
		"end before":        header + "a,KIV/PPA1,lecture,Po,10:00,09:00,,,,,,,\n",
		"unknown weeks":     header + "a,KIV/PPA1,lecture,Po,08:00,09:00,,fortnightly,,,,,\n",
		"orphan session":    header + "a,KIV/XYZ,lecture,Po,08:00,09:00,,,,,,,\n",
		"missing type":      header + "a,KIV/PPA1,,Po,08:00,09:00,,,,,,,\n",
		"duplicate id":      header + "a,KIV/PPA1,lecture,Po,08:00,09:00,,,,,,,\na,KIV/PPA1,lecture,Út,08:00,09:00,,,,,,,\n",
		"negative hours":    header + "a,KIV/PPA1,lecture,Po,08:00,09:00,-1,,,,,,\n",
		"id across courses": header + "a,KIV/PPA1,lecture,Po,08:00,09:00,,,,,,,\na,KMA/MA1,seminar,Út,08:00,09:00,,,,,,,\n",
		"invalid capacity":  header + "a,KIV/PPA1,lecture,Po,08:00,09:00,,,lots,,,,\n",
	}
	for name, sessions := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLoader(0).Load(strings.NewReader(coursesCSV), strings.NewReader(sessions))
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestLoadReportsLineNumber(t *testing.T) {
	sessions := "id,course,type,day,start,end,hours,weeks,capacity,capacity_max,room,instructor,note\n" +
		"ok,KIV/PPA1,lecture,Po,08:00,09:00,,,,,,,\n" +
		"bad,KIV/PPA1,lecture,Po,08:00,07:00,,,,,,,\n"

	_, err := NewLoader(0).Load(strings.NewReader(coursesCSV), strings.NewReader(sessions))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sessions line 3")
}

func TestLoadRejectsSessionIDSharedByTwoCourses(t *testing.T) {
	sessions := "id,course,type,day,start,end,hours,weeks,capacity,capacity_max,room,instructor,note\n" +
		"X,KIV/PPA1,lecture,Po,08:00,10:00,,,,,,,\n" +
		"X,KMA/MA1,seminar,Út,08:00,10:00,,,,,,,\n"

	courses, err := NewLoader(',').Load(strings.NewReader(coursesCSV), strings.NewReader(sessions))
	require.Error(t, err)
	assert.Nil(t, courses)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "sessions line 3")
	assert.Contains(t, err.Error(), "duplicate session X")
}

func TestParseCategory(t *testing.T) {
	cases := map[string]models.Category{
		"přednáška": models.CategoryLecture,
		"Př.":       models.CategoryLecture,
		"LECTURE":   models.CategoryLecture,
		"Cvičení":   models.CategoryPractical,
		"lab":       models.CategoryPractical,
		"Seminář":   models.CategorySeminar,
		"exkurze":   models.CategoryOther,
	}
	for raw, want := range cases {
		got, err := ParseCategory(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseCategory("  ")
	assert.Error(t, err)
}

func TestParseDayAndRecurrence(t *testing.T) {
	day, err := ParseDay("Čt")
	require.NoError(t, err)
	assert.Equal(t, models.Thursday, day)

	day, err = ParseDay("6")
	require.NoError(t, err)
	assert.Equal(t, models.Sunday, day)

	_, err = ParseDay("7")
	assert.Error(t, err)

	rec, err := ParseRecurrence("Jednorázově")
	require.NoError(t, err)
	assert.Equal(t, models.RecurrenceOneTime, rec)

	rec, err = ParseRecurrence("")
	require.NoError(t, err)
	assert.Equal(t, models.RecurrenceEveryWeek, rec)
}
