package pivot

import (
	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/internal/periods"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

// Reorder returns a copy of p with its columns laid out period by period in
// the given order, and metrics within a period following metricOrder.
// Metrics not named in metricOrder keep their place after the named ones.
func Reorder(p *Pivot, metricOrder []string, order enums.PeriodOrder) *Pivot {
	if p == nil {
		return nil
	}
	out := *p

	dates := append([]civil.Date(nil), p.Periods...)
	if order == enums.PeriodOrderOldestFirst {
		periods.SortAsc(dates)
	} else {
		periods.SortDesc(dates)
	}
	out.Periods = dates

	present := make(map[string]bool, len(p.Metrics))
	for _, m := range p.Metrics {
		present[m] = true
	}
	metrics := make([]string, 0, len(p.Metrics))
	placed := make(map[string]bool, len(p.Metrics))
	for _, m := range metricOrder {
		if present[m] && !placed[m] {
			metrics = append(metrics, m)
			placed[m] = true
		}
	}
	for _, m := range p.Metrics {
		if !placed[m] {
			metrics = append(metrics, m)
		}
	}
	out.Metrics = metrics

	byPeriodMetric := make(map[civil.Date]map[string]Column, len(dates))
	for _, col := range p.Columns {
		if byPeriodMetric[col.PeriodKey] == nil {
			byPeriodMetric[col.PeriodKey] = make(map[string]Column)
		}
		byPeriodMetric[col.PeriodKey][col.Metric] = col
	}
	out.Columns = make([]Column, 0, len(p.Columns))
	for _, d := range dates {
		for _, m := range metrics {
			if col, ok := byPeriodMetric[d][m]; ok {
				out.Columns = append(out.Columns, col)
			}
		}
	}
	out.Rows = append([]Row(nil), p.Rows...)
	return &out
}
