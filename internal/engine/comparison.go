package engine

import (
	"encoding/json"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/internal/catalog"
	"github.com/angelmondragon/sellerpulse-backend/internal/identity"
	"github.com/angelmondragon/sellerpulse-backend/internal/periods"
	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

// ComparisonColumns names the three period-over-period columns of a metric.
func ComparisonColumns(prefix, metric string) []string {
	base := prefix + "_" + metric
	return []string{base + "_prev", base + "_change", base + "_change_pct"}
}

// attachComparisons adds the preceding period's value and its change to each
// row. The preceding period is aggregated even when it falls outside the
// requested range; it reads as null when the entity had no data then.
func (r *run) attachComparisons(main *aggregation, rows []Row, metrics []string) {
	g := r.query.Granularity
	inMain := periods.NewSet(main.periods()...)
	lookbackPeriods := make(periods.Set)
	for _, row := range rows {
		prev := periods.Prev(row.Period, g)
		if !inMain.Has(prev) {
			lookbackPeriods[prev] = struct{}{}
		}
	}
	var lookback *aggregation
	if len(lookbackPeriods) > 0 {
		lookback = r.aggregate(onlyPeriods(lookbackPeriods))
	}

	prefix := g.ComparisonPrefix()
	for i := range rows {
		prevMetrics := previous(main, lookback, rows[i].EntityKey, periods.Prev(rows[i].Period, g))
		for _, m := range metrics {
			prev := prevMetrics.Get(m)
			change, pct := catalog.Change(rows[i].Values[m], prev)
			cols := ComparisonColumns(prefix, m)
			rows[i].Values[cols[0]] = prev
			rows[i].Values[cols[1]] = change
			rows[i].Values[cols[2]] = pct
		}
	}
}

func previous(main, lookback *aggregation, entityKey string, period civil.Date) catalog.Metrics {
	key := groupKey{entity: entityKey, period: period}
	if acc, ok := main.groups[key]; ok {
		return catalog.Evaluate(acc.Components())
	}
	if lookback != nil {
		if acc, ok := lookback.groups[key]; ok {
			return catalog.Evaluate(acc.Components())
		}
	}
	return nil
}

type YoYQuery struct {
	Month     civil.Date
	Level     enums.AggregationLevel
	Selection identity.Selection
	Metrics   []string
	Group     GroupFunc
}

// YoYRow holds the suffixed current, prior and change columns of one entity.
type YoYRow struct {
	EntityKey   string
	EntityLabel string
	Attributes  map[string]string
	Values      map[string]catalog.Value
}

func (r YoYRow) Value(column string) catalog.Value {
	return r.Values[column]
}

func (r YoYRow) MarshalJSON() ([]byte, error) {
	return Row{
		EntityKey:   r.EntityKey,
		EntityLabel: r.EntityLabel,
		Attributes:  r.Attributes,
		Values:      r.Values,
	}.MarshalJSON()
}

type YoYTable struct {
	CurrentMonth   civil.Date
	PriorYearMonth civil.Date
	Level          enums.AggregationLevel
	Metrics        []string
	Columns        []string
	Rows           []YoYRow
}

func (t *YoYTable) Count() int {
	return len(t.Rows)
}

func (t *YoYTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CurrentMonth   civil.Date `json:"current_month"`
		PriorYearMonth civil.Date `json:"prior_year_month"`
		Metrics        []string   `json:"metrics"`
		Columns        []string   `json:"columns"`
		Data           []YoYRow   `json:"data"`
		Count          int        `json:"count"`
	}{t.CurrentMonth, t.PriorYearMonth, t.Metrics, t.Columns, t.Rows, len(t.Rows)})
}

// YoYColumns names the four year-over-year columns of a metric.
func YoYColumns(metric string) []string {
	return []string{metric + "_current", metric + "_prior", metric + "_yoy_change", metric + "_yoy_pct"}
}

// GetYoYComparison compares a month with the same month a year earlier.
// Entities only present in the prior year are dropped; entities without
// prior-year data keep null prior and change columns.
func (e *Engine) GetYoYComparison(snap *snapshot.Snapshot, q YoYQuery) (*YoYTable, error) {
	if q.Month.IsZero() {
		return nil, validationError("month", "month is required")
	}
	current := periods.MonthStart(q.Month)
	prior := periods.PriorYear(current)

	base := MetricsQuery{
		Selection:   q.Selection,
		Level:       q.Level,
		Granularity: enums.GranularityMonthly,
		Metrics:     q.Metrics,
		Group:       q.Group,
	}
	curQuery, priorQuery := base, base
	curQuery.Range = TimeRange{Periods: []civil.Date{current}}
	priorQuery.Range = TimeRange{Periods: []civil.Date{prior}}

	curTable, err := e.GetMetrics(snap, curQuery)
	if err != nil {
		return nil, err
	}
	priorTable, err := e.GetMetrics(snap, priorQuery)
	if err != nil {
		return nil, err
	}

	priorByKey := make(map[string]Row, len(priorTable.Rows))
	for _, row := range priorTable.Rows {
		priorByKey[row.EntityKey] = row
	}

	out := &YoYTable{
		CurrentMonth:   current,
		PriorYearMonth: prior,
		Level:          q.Level,
		Metrics:        curTable.Metrics,
		Columns:        []string{ColumnEntityKey, ColumnEntity},
		Rows:           make([]YoYRow, 0, len(curTable.Rows)),
	}
	if q.Level == enums.AggregationLevelChild {
		out.Columns = append(out.Columns, ColumnParentName, ColumnVariantName)
	}
	for _, m := range curTable.Metrics {
		out.Columns = append(out.Columns, YoYColumns(m)...)
	}

	for _, row := range curTable.Rows {
		priorRow, hasPrior := priorByKey[row.EntityKey]
		values := make(map[string]catalog.Value, len(curTable.Metrics)*4)
		for _, m := range curTable.Metrics {
			cur := row.Values[m]
			prev := catalog.Null
			if hasPrior {
				prev = priorRow.Values[m]
			}
			change, pct := catalog.Change(cur, prev)
			cols := YoYColumns(m)
			values[cols[0]] = cur
			values[cols[1]] = prev
			values[cols[2]] = change
			values[cols[3]] = pct
		}
		out.Rows = append(out.Rows, YoYRow{
			EntityKey:   row.EntityKey,
			EntityLabel: row.EntityLabel,
			Attributes:  row.Attributes,
			Values:      values,
		})
	}
	return out, nil
}
