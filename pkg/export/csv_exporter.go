package export

import (
	"fmt"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/timetable-planner-api/internal/models"
)

// TimetableRow is one exported session line.
type TimetableRow struct {
	Course     string `csv:"course"`
	Session    string `csv:"session"`
	Category   string `csv:"category"`
	Day        string `csv:"day"`
	Start      string `csv:"start"`
	End        string `csv:"end"`
	Hours      string `csv:"hours"`
	Recurrence string `csv:"recurrence"`
	Room       string `csv:"room"`
	Instructor string `csv:"instructor"`
	Note       string `csv:"note"`
}

// Rows flattens a timetable into chronological export rows.
func Rows(tt *models.Timetable) []*TimetableRow {
	sessions := tt.Chronological()
	rows := make([]*TimetableRow, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, &TimetableRow{
			Course:     s.CourseID,
			Session:    s.ID,
			Category:   string(s.Category),
			Day:        models.DayName(s.DayOfWeek),
			Start:      models.FormatClock(s.StartMinute),
			End:        models.FormatClock(s.EndMinute),
			Hours:      strconv.FormatFloat(s.DurationHours, 'f', -1, 64),
			Recurrence: string(s.Recurrence),
			Room:       s.Room,
			Instructor: s.Instructor,
			Note:       s.Note,
		})
	}
	return rows
}

// CSVExporter renders timetables as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV bytes with a header line followed by one row per session.
func (e *CSVExporter) Render(tt *models.Timetable) ([]byte, error) {
	if tt == nil {
		return nil, fmt.Errorf("csv export requires a timetable")
	}
	rows := Rows(tt)
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal timetable csv: %w", err)
	}
	return out, nil
}
