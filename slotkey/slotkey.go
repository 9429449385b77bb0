// Package slotkey classifies and builds the string keys that address one cell
// of a scheduling grid.
//
// Two families of keys exist: weekday keys "<dayIndex>-<hour>" (0 is Monday)
// and calendar keys "YYYY-MM-DD" or "YYYY-MM-DD-<hour>". The calendar test runs
// first, so a key carrying a 4-digit year segment is never read as a weekday.
package slotkey

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Shape is the family a slot key belongs to.
type Shape int

const (
	Unrecognized Shape = iota
	Weekday
	CalendarDay
	CalendarHour
)

func (s Shape) String() string {
	switch s {
	case Weekday:
		return "weekday"
	case CalendarDay:
		return "calendarDay"
	case CalendarHour:
		return "calendarHour"
	}
	return "unrecognized"
}

// Slot is a classified slot key. Only the fields of its shape are set.
type Slot struct {
	Key      string
	Shape    Shape
	DayIndex int    // Weekday
	Hour     int    // Weekday, CalendarHour
	Date     string // CalendarDay, CalendarHour
}

// HasHour reports whether the slot addresses an hour rather than a whole day.
func (s Slot) HasHour() bool {
	return s.Shape == Weekday || s.Shape == CalendarHour
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Classify inspects the key's segments. It never fails; keys that fit no
// shape come back as Unrecognized.
func Classify(key string) Slot {
	parts := strings.Split(key, "-")

	if len(parts) > 1 {
		if hour, ok := parseUint(parts[len(parts)-1]); ok {
			prefix := strings.Join(parts[:len(parts)-1], "-")
			if datePattern.MatchString(prefix) {
				return Slot{Key: key, Shape: CalendarHour, Date: prefix, Hour: hour}
			}
		}
	}

	if datePattern.MatchString(key) {
		return Slot{Key: key, Shape: CalendarDay, Date: key}
	}

	if len(parts) == 2 {
		day, okDay := parseUint(parts[0])
		hour, okHour := parseUint(parts[1])
		if okDay && okHour {
			return Slot{Key: key, Shape: Weekday, DayIndex: day, Hour: hour}
		}
	}

	return Slot{Key: key, Shape: Unrecognized}
}

// parseUint accepts plain decimal digits only, no sign.
func parseUint(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// WeekdayKey builds "<day>-<hour>".
func WeekdayKey(day, hour int) string {
	return strconv.Itoa(day) + "-" + strconv.Itoa(hour)
}

// CalendarDayKey builds "YYYY-MM-DD" from the date part of t.
func CalendarDayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// CalendarHourKey builds "YYYY-MM-DD-<hour>".
func CalendarHourKey(t time.Time, hour int) string {
	return CalendarDayKey(t) + "-" + strconv.Itoa(hour)
}
