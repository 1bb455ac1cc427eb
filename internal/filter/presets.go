package filter

import (
	"fmt"
	"time"

	"github.com/joescharf/pinpoint/internal/models"
)

// Preset describes a named date range for pickers.
type Preset struct {
	Name  models.DatePreset
	Label string
}

// Presets lists the selectable date presets in display order.
var Presets = []Preset{
	{models.PresetToday, "Today"},
	{models.PresetYesterday, "Yesterday"},
	{models.PresetThisWeek, "This week"},
	{models.PresetLastWeek, "Last week"},
	{models.PresetThisMonth, "This month"},
	{models.PresetLastMonth, "Last month"},
	{models.PresetLast7Days, "Last 7 days"},
	{models.PresetLast30Days, "Last 30 days"},
	{models.PresetLast90Days, "Last 90 days"},
	{models.PresetThisYear, "This year"},
}

// PresetLabel returns the display label for a preset, or the raw name if unknown.
func PresetLabel(p models.DatePreset) string {
	for _, pr := range Presets {
		if pr.Name == p {
			return pr.Label
		}
	}
	return string(p)
}

// ResolvePreset turns a named preset into concrete inclusive bounds relative to now.
// Periods that include now end at now; closed past periods end one nanosecond before
// the next period starts. Weeks start on Monday. Calendar boundaries use now's location.
func ResolvePreset(p models.DatePreset, now time.Time) (models.DateRange, error) {
	day := startOfDay(now)
	var from, to time.Time

	switch p {
	case models.PresetToday:
		from, to = day, now
	case models.PresetYesterday:
		from, to = day.AddDate(0, 0, -1), day.Add(-time.Nanosecond)
	case models.PresetThisWeek:
		from, to = startOfWeek(now), now
	case models.PresetLastWeek:
		week := startOfWeek(now)
		from, to = week.AddDate(0, 0, -7), week.Add(-time.Nanosecond)
	case models.PresetThisMonth:
		from, to = startOfMonth(now), now
	case models.PresetLastMonth:
		month := startOfMonth(now)
		from, to = month.AddDate(0, -1, 0), month.Add(-time.Nanosecond)
	case models.PresetLast7Days:
		from, to = now.Add(-7*24*time.Hour), now
	case models.PresetLast30Days:
		from, to = now.Add(-30*24*time.Hour), now
	case models.PresetLast90Days:
		from, to = now.Add(-90*24*time.Hour), now
	case models.PresetThisYear:
		from, to = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), now
	default:
		return models.DateRange{}, fmt.Errorf("unknown date preset %q", p)
	}

	return models.DateRange{From: &from, To: &to, Preset: p}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return startOfDay(t).AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
