package dates

import (
	"fmt"
	"iter"
	"strings"
	"time"
)

// WorkWeek is the set of business weekdays, one bit per time.Weekday.
type WorkWeek uint8

// DefaultWorkWeek is Monday through Friday.
const DefaultWorkWeek WorkWeek = 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWorkWeek reads a comma separated list such as "Mon,Tue,Wed". An
// empty string gives DefaultWorkWeek.
func ParseWorkWeek(raw string) (WorkWeek, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultWorkWeek, nil
	}

	var week WorkWeek
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if len(name) > 3 {
			name = name[:3]
		}
		day, ok := weekdayNames[name]
		if !ok {
			return 0, fmt.Errorf("dates: unknown weekday %q", part)
		}
		week |= 1 << day
	}
	return week, nil
}

func (w WorkWeek) Includes(day time.Weekday) bool {
	return w&(1<<day) != 0
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekdayDates yields every business day from start to end inclusive, in
// order. The sequence can be ranged over any number of times.
func WeekdayDates(start, end time.Time, week WorkWeek) iter.Seq[time.Time] {
	first, last := Day(start), Day(end)
	return func(yield func(time.Time) bool) {
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if !week.Includes(d.Weekday()) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

// CollectWeekdayDates is WeekdayDates materialized into a slice.
func CollectWeekdayDates(start, end time.Time, week WorkWeek) []time.Time {
	var out []time.Time
	for d := range WeekdayDates(start, end, week) {
		out = append(out, d)
	}
	return out
}
