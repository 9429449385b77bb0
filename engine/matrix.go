package engine

import (
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"AvailabilityBot/model"
	"AvailabilityBot/slotkey"
)

var weekdayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Matrix is the render-ready arrangement of aggregated scores. Date-mode events
// fill Days; time-mode events fill Rows, Columns and Cells. Only coordinates
// observed in the scores are present.
type Matrix struct {
	Mode              model.Mode  `json:"mode"`
	TotalParticipants int         `json:"totalParticipants"`
	Days              []DayBar    `json:"days,omitempty"`
	Rows              []Row       `json:"rows,omitempty"`
	Columns           []Column    `json:"columns,omitempty"`
	Cells             [][]float64 `json:"cells,omitempty"` // [row][column]
}

// DayBar is one calendar day of a date-mode event.
type DayBar struct {
	Date      string  `json:"date"`
	Score     float64 `json:"score"`
	Intensity float64 `json:"intensity"`
}

type Row struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
}

// Column is either a calendar date or a weekday. Key is the date or the day
// index as a string.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Empty reports whether the matrix has nothing to draw.
func (m Matrix) Empty() bool {
	return len(m.Days) == 0 && len(m.Rows) == 0
}

// Intensity is score as a fraction of all participants, clamped to [0,1].
func (m Matrix) Intensity(score float64) float64 {
	return intensity(score, m.TotalParticipants)
}

func intensity(score float64, total int) float64 {
	if total <= 0 {
		return 0
	}
	f := score / float64(total)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// WeekdayLabel maps 0..6 to Mon..Sun and anything else to "Day".
func WeekdayLabel(day int) string {
	if day < 0 || day >= len(weekdayNames) {
		return "Day"
	}
	return weekdayNames[day]
}

// HourLabel renders an hour row label such as "9:00".
func HourLabel(hour int) string {
	return strconv.Itoa(hour) + ":00"
}

// Project arranges res into a Matrix according to the event's mode. Keys that
// do not fit the mode are skipped.
func Project(ev *model.Event, res Result) Matrix {
	m := Matrix{TotalParticipants: res.TotalParticipants}
	if ev != nil {
		m.Mode = ev.Mode
	}
	if res.Empty() || len(res.Scores) == 0 {
		return m
	}

	if m.Mode == model.ModeDate {
		projectDays(&m, res.Scores)
	} else {
		projectHours(&m, res.Scores)
	}
	return m
}

func projectDays(m *Matrix, scores []SlotScore) {
	totals := make(map[string]float64)
	for _, s := range scores {
		slot := slotkey.Classify(s.Key)
		switch slot.Shape {
		case slotkey.CalendarDay, slotkey.CalendarHour:
			totals[slot.Date] += s.Score
		default:
			log.Debug().Str("slot", s.Key).Str("shape", slot.Shape.String()).Msg("slot does not fit date mode")
		}
	}

	dates := make([]string, 0, len(totals))
	for date := range totals {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	m.Days = make([]DayBar, 0, len(dates))
	for _, date := range dates {
		m.Days = append(m.Days, DayBar{
			Date:      date,
			Score:     totals[date],
			Intensity: intensity(totals[date], m.TotalParticipants),
		})
	}
}

type cell struct {
	hour   int
	column string
}

func projectHours(m *Matrix, scores []SlotScore) {
	cells := make(map[cell]float64)
	hours := make(map[int]struct{})
	dates := make(map[string]struct{})
	days := make(map[int]struct{})

	for _, s := range scores {
		slot := slotkey.Classify(s.Key)
		var column string
		switch slot.Shape {
		case slotkey.CalendarHour:
			column = slot.Date
			dates[slot.Date] = struct{}{}
		case slotkey.Weekday:
			column = strconv.Itoa(slot.DayIndex)
			days[slot.DayIndex] = struct{}{}
		default:
			log.Debug().Str("slot", s.Key).Str("shape", slot.Shape.String()).Msg("slot does not fit time mode")
			continue
		}
		hours[slot.Hour] = struct{}{}
		cells[cell{hour: slot.Hour, column: column}] += s.Score
	}
	if len(cells) == 0 {
		return
	}

	sortedDates := make([]string, 0, len(dates))
	for d := range dates {
		sortedDates = append(sortedDates, d)
	}
	sort.Strings(sortedDates)
	for _, d := range sortedDates {
		m.Columns = append(m.Columns, Column{Key: d, Label: d})
	}

	sortedDays := make([]int, 0, len(days))
	for d := range days {
		sortedDays = append(sortedDays, d)
	}
	sort.Ints(sortedDays)
	for _, d := range sortedDays {
		m.Columns = append(m.Columns, Column{Key: strconv.Itoa(d), Label: WeekdayLabel(d)})
	}

	sortedHours := make([]int, 0, len(hours))
	for h := range hours {
		sortedHours = append(sortedHours, h)
	}
	sort.Ints(sortedHours)

	m.Rows = make([]Row, 0, len(sortedHours))
	m.Cells = make([][]float64, 0, len(sortedHours))
	for _, h := range sortedHours {
		m.Rows = append(m.Rows, Row{Hour: h, Label: HourLabel(h)})
		row := make([]float64, len(m.Columns))
		for i, col := range m.Columns {
			row[i] = cells[cell{hour: h, column: col.Key}]
		}
		m.Cells = append(m.Cells, row)
	}
}
