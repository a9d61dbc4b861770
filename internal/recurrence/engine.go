package recurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// canonical English weekday names, indexed by time.Weekday.
var weekdayNames = [7]string{
	"Sunday",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
}

// ParseWeekday resolves a canonical English weekday name to its ordinal.
// Matching is case-insensitive; anything outside the seven names is an error.
func ParseWeekday(name string) (time.Weekday, error) {
	trimmed := strings.TrimSpace(name)
	for day, candidate := range weekdayNames {
		if strings.EqualFold(candidate, trimmed) {
			return time.Weekday(day), nil
		}
	}
	return time.Sunday, fmt.Errorf("recurrence: unknown weekday %q", name)
}

// ParseWeekdays resolves a list of weekday names, preserving order and
// reporting the first unknown name.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	if len(names) == 0 {
		return nil, nil
	}
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

// FormatWeekday returns the canonical English name for a weekday.
func FormatWeekday(day time.Weekday) string {
	if day < time.Sunday || day > time.Saturday {
		return ""
	}
	return weekdayNames[day]
}

// FormatWeekdays returns canonical names for the provided ordinals.
func FormatWeekdays(days []time.Weekday) []string {
	if len(days) == 0 {
		return nil
	}
	names := make([]string, 0, len(days))
	for _, day := range days {
		if name := FormatWeekday(day); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Expand walks every calendar day from start to end inclusive and returns, in
// date order, the days whose weekday is in the requested set. An empty set or
// an inverted range produces an empty sequence rather than an error. Both
// endpoints are included when they match. The result carries midnight
// instants in start's location; callers compose time-of-day separately.
func Expand(weekdays []time.Weekday, start, end time.Time) []time.Time {
	if len(weekdays) == 0 {
		return nil
	}

	selected := make(map[time.Weekday]struct{}, len(weekdays))
	for _, day := range weekdays {
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		selected[day] = struct{}{}
	}
	if len(selected) == 0 {
		return nil
	}

	first := startOfDay(start)
	last := startOfDay(end)
	if first.After(last) {
		return nil
	}

	dates := make([]time.Time, 0)
	// AddDate steps in calendar days, which keeps the walk stable across
	// daylight-saving transitions.
	for current := first; !current.After(last); current = current.AddDate(0, 0, 1) {
		if _, ok := selected[current.Weekday()]; ok {
			dates = append(dates, current)
		}
	}

	return dates
}

// Compose merges the calendar date of date with the time-of-day of template.
// The composition is wall-clock: every produced instant shows the template's
// hour and minute regardless of daylight-saving shifts between dates.
func Compose(date, template time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d,
		template.Hour(), template.Minute(), template.Second(), template.Nanosecond(),
		template.Location())
}

// UniqueWeekdays drops duplicates and out-of-range ordinals, returning the
// set sorted Sunday first.
func UniqueWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	result := make([]time.Weekday, 0, len(days))
	for _, day := range days {
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		result = append(result, day)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})

	return result
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
