package engine

import (
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/internal/catalog"
	"github.com/angelmondragon/sellerpulse-backend/internal/identity"
	"github.com/angelmondragon/sellerpulse-backend/internal/periods"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

// CustomSelectionKey is the single group used by the custom level when no
// grouping function is supplied.
const CustomSelectionKey = "custom_selection"

// TimeRange is either an inclusive date bound or an explicit set of period
// starts. The explicit set wins when both are given.
type TimeRange struct {
	Start   civil.Date   `json:"start_date"`
	End     civil.Date   `json:"end_date"`
	Periods []civil.Date `json:"periods,omitempty"`
}

func (r TimeRange) Explicit() bool {
	return len(r.Periods) > 0
}

// GroupFunc assigns a child ASIN to a custom group. Returning ok=false leaves
// the ASIN out of the result.
type GroupFunc func(entry identity.Entry) (key, label string, ok bool)

// CustomGroups builds a GroupFunc from named lists of child ASINs. An ASIN
// listed under several groups belongs to the first name in sorted order.
func CustomGroups(groups map[string][]string) GroupFunc {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	owner := make(map[string]string)
	for _, name := range names {
		for _, asin := range groups[name] {
			asin = strings.TrimSpace(asin)
			if _, taken := owner[asin]; !taken {
				owner[asin] = name
			}
		}
	}
	return func(entry identity.Entry) (string, string, bool) {
		name, ok := owner[entry.ChildASIN]
		return name, name, ok
	}
}

func singleGroup(identity.Entry) (string, string, bool) {
	return CustomSelectionKey, CustomSelectionKey, true
}

type MetricsQuery struct {
	Selection         identity.Selection
	Range             TimeRange
	Level             enums.AggregationLevel
	Granularity       enums.Granularity
	IncludeComparison bool
	// Metrics limits the output columns; empty means every metric.
	Metrics []string
	// Group is consulted only at the custom level.
	Group GroupFunc
}

func (q MetricsQuery) validate() error {
	if !q.Level.IsValid() {
		return configurationError("aggregation_level", string(q.Level), enums.AggregationLevels())
	}
	if !q.Granularity.IsValid() {
		return configurationError("granularity", string(q.Granularity), enums.Granularities())
	}
	for _, name := range q.Metrics {
		if _, ok := catalog.Lookup(name); !ok {
			return configurationError("metric", name, catalog.Names())
		}
	}
	if !q.Range.Explicit() && !q.Range.Start.IsZero() && !q.Range.End.IsZero() && q.Range.End.Before(q.Range.Start) {
		return validationError("end_date", "end_date must not be before start_date")
	}
	return nil
}

func (q MetricsQuery) metricNames() []string {
	if len(q.Metrics) == 0 {
		return catalog.Names()
	}
	seen := make(map[string]struct{}, len(q.Metrics))
	out := make([]string, 0, len(q.Metrics))
	for _, name := range q.Metrics {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// normalizedPeriods maps explicit periods onto period starts: monthly periods
// collapse to the first of the month, weekly ones snap back to the week start.
func (q MetricsQuery) normalizedPeriods(weekStart time.Weekday) periods.Set {
	set := make(periods.Set, len(q.Range.Periods))
	for _, p := range q.Range.Periods {
		p = periods.Bucket(p, q.Granularity, weekStart)
		set[p] = struct{}{}
	}
	return set
}
