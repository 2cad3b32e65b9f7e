package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner-api/internal/models"
	"github.com/noah-isme/timetable-planner-api/pkg/config"
)

const testCourses = `course;name;lecture_hours;practical_hours;seminar_hours;other_hours
A;Algorithms;2;;;
B;Biology;;;2;
`

const testSessions = `id;course;type;day;start;end;hours;weeks;capacity;capacity_max;room;instructor;note
a1;A;lecture;Monday;08:00;10:00;;;;;EP 130;;
a2;A;lecture;Tuesday;08:00;10:00;;;;;EP 130;;
b1;B;seminar;Monday;08:00;10:00;;;;;UL 408;;
b2;B;seminar;Wednesday;08:00;10:00;;lichý;;;UL 408;;
`

func writeCatalog(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	courses := filepath.Join(dir, "courses.csv")
	sessions := filepath.Join(dir, "sessions.csv")
	require.NoError(t, os.WriteFile(courses, []byte(testCourses), 0o600))
	require.NoError(t, os.WriteFile(sessions, []byte(testSessions), 0o600))
	return courses, sessions
}

func TestRunPrintsAndExports(t *testing.T) {
	courses, sessions := writeCatalog(t)
	dir := t.TempDir()
	opts := options{
		coursesPath:  courses,
		sessionsPath: sessions,
		delimiter:    ";",
		maxResults:   10,
		timeout:      time.Second,
		csvPath:      filepath.Join(dir, "plan.csv"),
		pdfPath:      filepath.Join(dir, "plan.pdf"),
	}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), opts, &out, zap.NewNop()))

	assert.Contains(t, out.String(), "Timetable 1")
	assert.Contains(t, out.String(), "Timetable 3")
	assert.NotContains(t, out.String(), "Timetable 4")
	assert.Contains(t, out.String(), "ODD_WEEK")

	csvBody, err := os.ReadFile(opts.csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(csvBody), "A,a1,LECTURE,Monday,08:00,10:00")

	pdfBody, err := os.ReadFile(opts.pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBody, []byte("%PDF")))
}

func TestRunAppliesPreferences(t *testing.T) {
	courses, sessions := writeCatalog(t)
	opts := options{coursesPath: courses, sessionsPath: sessions, delimiter: ";", maxResults: 10,
		freeDays: []string{"Monday"}, avoid: []string{"Wednesday,07:00,09:00"}}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), opts, &out, zap.NewNop()))
	assert.Contains(t, out.String(), "no timetable satisfies")
}

func TestRunSelectsCourses(t *testing.T) {
	courses, sessions := writeCatalog(t)
	var out bytes.Buffer

	opts := options{coursesPath: courses, sessionsPath: sessions, delimiter: ";", maxResults: 10, selected: []string{"B"}}
	require.NoError(t, run(context.Background(), opts, &out, zap.NewNop()))
	assert.Contains(t, out.String(), "Timetable 2")
	assert.NotContains(t, out.String(), "a1")

	opts.selected = []string{"Z"}
	assert.Error(t, run(context.Background(), opts, &out, zap.NewNop()))
}

func TestSelectCoursesIgnoresRepeatedIDs(t *testing.T) {
	courses := []models.Course{{ID: "A"}, {ID: "B"}}

	selected, err := selectCourses(courses, []string{"B", "A", " B", "A"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "B", selected[0].ID)
	assert.Equal(t, "A", selected[1].ID)

	catalogCourses, catalogSessions := writeCatalog(t)
	var out bytes.Buffer
	opts := options{coursesPath: catalogCourses, sessionsPath: catalogSessions, delimiter: ";", maxResults: 10, selected: []string{"A", "A"}}
	require.NoError(t, run(context.Background(), opts, &out, zap.NewNop()))
	assert.Contains(t, out.String(), "Timetable 2")
	assert.NotContains(t, out.String(), "no timetable")
}

func TestPreferencesParsing(t *testing.T) {
	prefs, err := preferences([]string{"pátek", "0"}, []string{"Tuesday, 12:00, 13:30"})
	require.NoError(t, err)
	require.Len(t, prefs, 3)
	assert.Equal(t, models.Friday, prefs[0].DayOfWeek)
	assert.Equal(t, models.PreferenceAvoidWindow, prefs[2].Kind)
	assert.Equal(t, 720, prefs[2].StartMinute)

	_, err = preferences(nil, []string{"Tuesday,12:00"})
	assert.Error(t, err)
	_, err = preferences(nil, []string{"Tuesday,14:00,13:00"})
	assert.Error(t, err)
	_, err = preferences([]string{"someday"}, nil)
	assert.Error(t, err)
}

func TestDelimiterAndFlags(t *testing.T) {
	r, err := delimiter("tab")
	require.NoError(t, err)
	assert.Equal(t, '\t', r)
	_, err = delimiter(";;")
	assert.Error(t, err)

	cfg := &config.Config{Scheduler: config.SchedulerConfig{MaxResults: 7, Timeout: time.Second}}
	opts := parseFlags([]string{"--free-day", "Mon", "--free-day", "Fri", "--max", "3", "--select", "A,B"}, cfg)
	assert.Equal(t, []string{"Mon", "Fri"}, opts.freeDays)
	assert.Equal(t, 3, opts.maxResults)
	assert.Equal(t, []string{"A", "B"}, opts.selected)
	assert.Equal(t, time.Second, opts.timeout)
}
