// Package periods holds the calendar arithmetic shared by the engine, the pivot
// builder and gap detection. Every period is identified by its start date.
package periods

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

const (
	weeklyLabelLayout  = "Jan_02"
	monthlyLabelLayout = "Jan_2006"
)

// WeekStart returns the most recent day on or before d that falls on weekStart.
func WeekStart(d civil.Date, weekStart time.Weekday) civil.Date {
	offset := (int(d.In(time.UTC).Weekday()) - int(weekStart) + 7) % 7
	return d.AddDays(-offset)
}

// MonthStart returns the first day of d's month.
func MonthStart(d civil.Date) civil.Date {
	return civil.Date{Year: d.Year, Month: d.Month, Day: 1}
}

// Bucket truncates d to the start of its period.
func Bucket(d civil.Date, g enums.Granularity, weekStart time.Weekday) civil.Date {
	if g == enums.GranularityMonthly {
		return MonthStart(d)
	}
	return WeekStart(d, weekStart)
}

// AddMonths shifts a month start by n months.
func AddMonths(d civil.Date, n int) civil.Date {
	t := time.Date(d.Year, d.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return civil.DateOf(t)
}

// Next returns the start of the period after p.
func Next(p civil.Date, g enums.Granularity) civil.Date {
	if g == enums.GranularityMonthly {
		return AddMonths(MonthStart(p), 1)
	}
	return p.AddDays(7)
}

// Prev returns the start of the period before p.
func Prev(p civil.Date, g enums.Granularity) civil.Date {
	if g == enums.GranularityMonthly {
		return AddMonths(MonthStart(p), -1)
	}
	return p.AddDays(-7)
}

// End returns the last day covered by the period starting at p.
func End(p civil.Date, g enums.Granularity) civil.Date {
	return Next(p, g).AddDays(-1)
}

// PriorYear returns the same month one calendar year earlier.
func PriorYear(month civil.Date) civil.Date {
	return civil.Date{Year: month.Year - 1, Month: month.Month, Day: 1}
}

// Label renders the short display tag of a period: Jan_04 or Jan_2025.
func Label(p civil.Date, g enums.Granularity) string {
	if g == enums.GranularityMonthly {
		return p.In(time.UTC).Format(monthlyLabelLayout)
	}
	return p.In(time.UTC).Format(weeklyLabelLayout)
}

// Sequence steps from start through end inclusive.
func Sequence(start, end civil.Date, g enums.Granularity) []civil.Date {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil
	}
	var out []civil.Date
	for p := start; !p.After(end); p = Next(p, g) {
		out = append(out, p)
	}
	return out
}

// Range is an inclusive date bound. A zero side is open.
type Range struct {
	Start civil.Date
	End   civil.Date
}

// Contains reports whether d lies within the range.
func (r Range) Contains(d civil.Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// IsZero reports whether both sides are open.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Compare orders two dates, returning -1, 0 or 1.
func Compare(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// SortDesc sorts dates most recent first, in place.
func SortDesc(dates []civil.Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
}

// SortAsc sorts dates oldest first, in place.
func SortAsc(dates []civil.Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}

// Set is a membership set of period starts.
type Set map[civil.Date]struct{}

// NewSet builds a set from dates.
func NewSet(dates ...civil.Date) Set {
	s := make(Set, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(d civil.Date) bool {
	_, ok := s[d]
	return ok
}

// Sorted returns the members oldest first.
func (s Set) Sorted() []civil.Date {
	out := make([]civil.Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	SortAsc(out)
	return out
}
