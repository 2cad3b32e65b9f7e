// Command planner generates timetables offline from catalog CSV files.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner-api/internal/catalog"
	"github.com/noah-isme/timetable-planner-api/internal/models"
	"github.com/noah-isme/timetable-planner-api/internal/scheduler"
	"github.com/noah-isme/timetable-planner-api/internal/service"
	"github.com/noah-isme/timetable-planner-api/pkg/config"
	"github.com/noah-isme/timetable-planner-api/pkg/export"
	"github.com/noah-isme/timetable-planner-api/pkg/logger"
)

type options struct {
	coursesPath  string
	sessionsPath string
	delimiter    string
	selected     []string
	freeDays     []string
	avoid        []string
	maxResults   int
	timeout      time.Duration
	csvPath      string
	pdfPath      string
	issueToken   string
	tokenRole    string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	opts := parseFlags(os.Args[1:], cfg)

	if opts.issueToken != "" {
		token, expiresAt, err := service.NewTokenService(cfg.JWT.Secret, 0).Issue(opts.issueToken, models.Role(strings.ToUpper(opts.tokenRole)))
		if err != nil {
			logr.Fatal("failed to issue token", zap.Error(err))
		}
		fmt.Printf("%s\n# expires %s\n", token, expiresAt.Format(time.RFC3339))
		return
	}

	if err := run(context.Background(), opts, os.Stdout, logr); err != nil {
		logr.Fatal("planner failed", zap.Error(err))
	}
}

func parseFlags(args []string, cfg *config.Config) options {
	var opts options
	fs := pflag.NewFlagSet("planner", pflag.ExitOnError)
	fs.StringVar(&opts.coursesPath, "courses", "courses.csv", "course CSV file")
	fs.StringVar(&opts.sessionsPath, "sessions", "sessions.csv", "session CSV file")
	fs.StringVar(&opts.delimiter, "delim", ",", "CSV field delimiter")
	fs.StringSliceVar(&opts.selected, "select", nil, "course ids to combine (default: every course in the file)")
	fs.StringArrayVar(&opts.freeDays, "free-day", nil, "day to keep free, e.g. Friday or 4 (repeatable)")
	fs.StringArrayVar(&opts.avoid, "avoid", nil, `window to avoid as "day,HH:MM,HH:MM" (repeatable)`)
	fs.IntVar(&opts.maxResults, "max", cfg.Scheduler.MaxResults, "maximum number of timetables")
	fs.DurationVar(&opts.timeout, "timeout", cfg.Scheduler.Timeout, "search time limit")
	fs.StringVar(&opts.csvPath, "csv", "", "write the primary timetable as CSV to this path")
	fs.StringVar(&opts.pdfPath, "pdf", "", "write the primary timetable as PDF to this path")
	fs.StringVar(&opts.issueToken, "issue-token", "", "print an access token for this subject and exit")
	fs.StringVar(&opts.tokenRole, "role", string(models.RoleAdmin), "role for -issue-token")
	_ = fs.Parse(args)
	return opts
}

func run(ctx context.Context, opts options, out io.Writer, logr *zap.Logger) error {
	comma, err := delimiter(opts.delimiter)
	if err != nil {
		return err
	}
	courses, err := catalog.NewLoader(comma).LoadFiles(opts.coursesPath, opts.sessionsPath)
	if err != nil {
		return err
	}
	courses, err = selectCourses(courses, opts.selected)
	if err != nil {
		return err
	}
	prefs, err := preferences(opts.freeDays, opts.avoid)
	if err != nil {
		return err
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := scheduler.NewComposer(scheduler.Config{MaxResults: opts.maxResults}).Compose(ctx, courses, prefs)
	if err != nil {
		logr.Warn("search stopped early", zap.Error(err), zap.Int("found", len(result.Timetables)))
	}
	logr.Info("search finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("courses", result.Stats.Courses),
		zap.Int("combinations", result.Stats.Combinations),
		zap.Int("leaves", result.Stats.Leaves),
		zap.Int("found", len(result.Timetables)),
		zap.Bool("truncated", result.Truncated))

	if len(result.Timetables) == 0 {
		fmt.Fprintln(out, "no timetable satisfies the selected courses")
		return nil
	}
	for i, tt := range result.Timetables {
		printTimetable(out, i+1, tt)
	}
	if result.Truncated {
		fmt.Fprintf(out, "stopped after %d timetables\n", len(result.Timetables))
	}

	primary := result.Timetables[0]
	if opts.csvPath != "" {
		body, err := export.NewCSVExporter().Render(primary)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.csvPath, body, 0o644); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if opts.pdfPath != "" {
		body, err := export.NewPDFExporter().Render(primary, "Timetable")
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.pdfPath, body, 0o644); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	return nil
}

func delimiter(raw string) (rune, error) {
	switch raw {
	case "", ",":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	runes := []rune(raw)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", raw)
	}
	return runes[0], nil
}

func selectCourses(courses []models.Course, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return courses, nil
	}
	byID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	selected := make([]models.Course, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		seen[id] = true
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("course %s is not in the catalog", id)
		}
		selected = append(selected, c)
	}
	return selected, nil
}

func preferences(freeDays, avoid []string) ([]models.Preference, error) {
	prefs := make([]models.Preference, 0, len(freeDays)+len(avoid))
	for _, raw := range freeDays {
		day, err := catalog.ParseDay(raw)
		if err != nil {
			return nil, err
		}
		pref, err := models.NewFreeDay(day, 0)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, pref)
	}
	for _, raw := range avoid {
		parts := strings.Split(raw, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf(`avoid window %q must look like "day,HH:MM,HH:MM"`, raw)
		}
		day, err := catalog.ParseDay(parts[0])
		if err != nil {
			return nil, err
		}
		pref, err := models.NewAvoidWindow(day, strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), 0)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, pref)
	}
	return prefs, nil
}

func printTimetable(out io.Writer, n int, tt *models.Timetable) {
	fmt.Fprintf(out, "Timetable %d\n", n)
	for _, s := range tt.Chronological() {
		line := fmt.Sprintf("  %-9s %s-%s  %-12s %-10s %-9s", models.DayName(s.DayOfWeek),
			models.FormatClock(s.StartMinute), models.FormatClock(s.EndMinute), s.CourseID, s.ID, s.Category)
		if s.Recurrence != models.RecurrenceEveryWeek {
			line += " " + string(s.Recurrence)
		}
		if s.Room != "" {
			line += " @" + s.Room
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}
