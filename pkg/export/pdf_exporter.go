package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/timetable-planner-api/internal/models"
)

const (
	pageWidth   = 297.0
	marginX     = 10.0
	gridTop     = 28.0
	gridHeight  = 170.0
	timeColumn  = 14.0
	defaultFrom = 8 * 60
	defaultTo   = 18 * 60
)

var categoryFill = map[models.Category][3]int{
	models.CategoryLecture:   {198, 219, 239},
	models.CategoryPractical: {199, 233, 192},
	models.CategorySeminar:   {253, 208, 162},
	models.CategoryOther:     {218, 218, 235},
}

// PDFExporter renders a timetable as a landscape weekly grid.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws one column per weekday and one block per session, scaled by time of day.
// Odd/even-week sessions sharing a slot are drawn side by side.
func (e *PDFExporter) Render(tt *models.Timetable, title string) ([]byte, error) {
	if tt == nil {
		return nil, fmt.Errorf("pdf export requires a timetable")
	}
	sessions := tt.Chronological()
	days := visibleDays(sessions)
	from, to := hourBounds(sessions)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(marginX, 10, marginX)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	}

	colWidth := (pageWidth - 2*marginX - timeColumn) / float64(len(days))
	scale := gridHeight / float64(to-from)
	left := marginX + timeColumn

	pdf.SetFont("Arial", "B", 9)
	for i, day := range days {
		pdf.SetXY(left+float64(i)*colWidth, gridTop-7)
		pdf.CellFormat(colWidth, 6, models.DayName(day), "1", 0, "C", false, 0, "")
	}

	pdf.SetFont("Arial", "", 7)
	pdf.SetDrawColor(200, 200, 200)
	for minute := from; minute <= to; minute += 60 {
		y := gridTop + float64(minute-from)*scale
		pdf.Line(left, y, left+colWidth*float64(len(days)), y)
		pdf.SetXY(marginX, y-1.5)
		pdf.CellFormat(timeColumn-1, 3, models.FormatClock(minute), "", 0, "R", false, 0, "")
	}
	for i := 0; i <= len(days); i++ {
		x := left + float64(i)*colWidth
		pdf.Line(x, gridTop, x, gridTop+gridHeight)
	}

	pdf.SetDrawColor(80, 80, 80)
	for i, day := range days {
		placed := lanes(sessionsOn(sessions, day))
		for _, p := range placed {
			width := colWidth / float64(p.width)
			x := left + float64(i)*colWidth + float64(p.lane)*width
			y := gridTop + float64(p.session.StartMinute-from)*scale
			h := float64(p.session.EndMinute-p.session.StartMinute) * scale

			fill, ok := categoryFill[p.session.Category]
			if !ok {
				fill = categoryFill[models.CategoryOther]
			}
			pdf.SetFillColor(fill[0], fill[1], fill[2])
			pdf.Rect(x, y, width, h, "FD")
			pdf.SetXY(x+0.5, y+0.5)
			pdf.MultiCell(width-1, 3, tr(blockLabel(p.session)), "", "L", false)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func blockLabel(s models.Session) string {
	parts := []string{
		s.CourseID,
		fmt.Sprintf("%s-%s", models.FormatClock(s.StartMinute), models.FormatClock(s.EndMinute)),
		strings.ToLower(string(s.Category)),
	}
	if s.Recurrence == models.RecurrenceOddWeek || s.Recurrence == models.RecurrenceEvenWeek {
		parts = append(parts, strings.ToLower(string(s.Recurrence)))
	}
	if s.Room != "" {
		parts = append(parts, s.Room)
	}
	return strings.Join(parts, "\n")
}

// visibleDays is Monday-Friday plus any weekend day that has a session.
func visibleDays(sessions []models.Session) []int {
	days := []int{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday}
	for _, weekend := range []int{models.Saturday, models.Sunday} {
		if len(sessionsOn(sessions, weekend)) > 0 {
			days = append(days, weekend)
		}
	}
	return days
}

// hourBounds widens the default 08:00-18:00 window to whole hours covering every session.
func hourBounds(sessions []models.Session) (int, int) {
	from, to := defaultFrom, defaultTo
	for _, s := range sessions {
		if s.StartMinute < from {
			from = s.StartMinute / 60 * 60
		}
		if s.EndMinute > to {
			to = (s.EndMinute + 59) / 60 * 60
		}
	}
	return from, to
}

func sessionsOn(sessions []models.Session, day int) []models.Session {
	var out []models.Session
	for _, s := range sessions {
		if s.DayOfWeek == day {
			out = append(out, s)
		}
	}
	return out
}

type placement struct {
	session models.Session
	lane    int
	width   int
}

// lanes assigns overlapping sessions of one day to side-by-side lanes.
// Sessions that overlap transitively share a cluster and the cluster's lane count.
func lanes(sessions []models.Session) []placement {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartMinute < sessions[j].StartMinute
	})

	var (
		out          []placement
		clusterStart int
		clusterEnd   int
		laneEnds     []int
	)
	closeCluster := func() {
		for k := clusterStart; k < len(out); k++ {
			out[k].width = len(laneEnds)
		}
	}

	for _, s := range sessions {
		if len(out) > clusterStart && s.StartMinute >= clusterEnd {
			closeCluster()
			clusterStart = len(out)
			laneEnds = nil
		}
		lane := -1
		for k, end := range laneEnds {
			if end <= s.StartMinute {
				lane = k
				break
			}
		}
		if lane < 0 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, 0)
		}
		laneEnds[lane] = s.EndMinute
		if s.EndMinute > clusterEnd || len(out) == clusterStart {
			clusterEnd = s.EndMinute
		}
		out = append(out, placement{session: s, lane: lane})
	}
	closeCluster()
	return out
}
