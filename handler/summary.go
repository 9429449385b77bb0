package handler

import (
	"fmt"
	"strings"

	"AvailabilityBot/engine"
	"AvailabilityBot/service"
	"AvailabilityBot/slotkey"
)

// slotLabel renders a slot key for people: "Mon 9:00", "2024-06-01 9:00".
func slotLabel(key string) string {
	slot := slotkey.Classify(key)
	switch slot.Shape {
	case slotkey.Weekday:
		return engine.WeekdayLabel(slot.DayIndex) + " " + engine.HourLabel(slot.Hour)
	case slotkey.CalendarHour:
		return slot.Date + " " + engine.HourLabel(slot.Hour)
	}
	return key
}

func formatScore(score float64) string {
	return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.1f", score), "0"), ".")
}

func formatSummary(report *service.Report, topN int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗓 %s\n", report.Name)

	res := report.Result
	if res.Empty() {
		b.WriteString("No votes yet.")
		return b.String()
	}
	fmt.Fprintf(&b, "%d participant(s) voted.\n", res.TotalParticipants)

	top := res.Top(topN)
	if len(top) == 0 {
		b.WriteString("No slots picked yet.")
		return b.String()
	}
	b.WriteString("\nBest slots:\n")
	for i, s := range top {
		pct := int(report.Matrix.Intensity(s.Score)*100 + 0.5)
		fmt.Fprintf(&b, "%d. %s - %s/%d (%d%%)\n", i+1, slotLabel(s.Key), formatScore(s.Score), res.TotalParticipants, pct)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMissing(missing []string) string {
	if len(missing) == 0 {
		return "Everyone on the list has voted."
	}
	var b strings.Builder
	b.WriteString("Still waiting for:\n")
	for _, m := range missing {
		fmt.Fprintf(&b, "- @%s\n", m)
	}
	return strings.TrimRight(b.String(), "\n")
}
