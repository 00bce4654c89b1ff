package engine

import (
	"encoding/json"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/internal/catalog"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

const (
	ColumnEntityKey    = "entity_key"
	ColumnEntity       = "entity"
	ColumnParentName   = "parent_name"
	ColumnVariantName  = "variant_name"
	ColumnPeriodStart  = "period_start"
	ColumnPeriodEnd    = "period_end"
	ColumnPeriodsCount = "periods_count"
)

// Row is one (entity, period) group of a long table, or one entity of a
// cumulative table.
type Row struct {
	EntityKey   string
	EntityLabel string
	Attributes  map[string]string
	Period      civil.Date
	PeriodEnd   civil.Date
	// PeriodCount is set on cumulative rows only.
	PeriodCount int
	Values      map[string]catalog.Value
	// Components are the additive sums behind Values, kept for re-aggregation.
	Components catalog.Components
}

// Value returns a metric or comparison column, null when absent.
func (r Row) Value(column string) catalog.Value {
	return r.Values[column]
}

func (r Row) MarshalJSON() ([]byte, error) {
	record := make(map[string]any, len(r.Values)+6)
	record[ColumnEntityKey] = r.EntityKey
	record[ColumnEntity] = r.EntityLabel
	for k, v := range r.Attributes {
		record[k] = v
	}
	if !r.Period.IsZero() {
		record[ColumnPeriodStart] = r.Period
		record[ColumnPeriodEnd] = r.PeriodEnd
	}
	if r.PeriodCount > 0 {
		record[ColumnPeriodsCount] = r.PeriodCount
	}
	for k, v := range r.Values {
		record[k] = v
	}
	return json.Marshal(record)
}

// Table is the long-format result: one row per entity and period, sorted by
// entity label ascending then period most recent first.
type Table struct {
	Level       enums.AggregationLevel
	Granularity enums.Granularity
	Cumulative  bool
	// Periods are the distinct periods present, most recent first.
	Periods []civil.Date
	Metrics []string
	Columns []string
	Rows    []Row
}

func newTable(q MetricsQuery, cumulative bool) *Table {
	metrics := q.metricNames()
	return &Table{
		Level:       q.Level,
		Granularity: q.Granularity,
		Cumulative:  cumulative,
		Periods:     []civil.Date{},
		Metrics:     metrics,
		Columns:     columns(q, metrics, cumulative),
		Rows:        []Row{},
	}
}

func columns(q MetricsQuery, metrics []string, cumulative bool) []string {
	cols := []string{ColumnEntityKey, ColumnEntity}
	if q.Level == enums.AggregationLevelChild {
		cols = append(cols, ColumnParentName, ColumnVariantName)
	}
	cols = append(cols, ColumnPeriodStart, ColumnPeriodEnd)
	if cumulative {
		cols = append(cols, ColumnPeriodsCount)
	}
	cols = append(cols, metrics...)
	if q.IncludeComparison && !cumulative {
		prefix := q.Granularity.ComparisonPrefix()
		for _, m := range metrics {
			cols = append(cols, ComparisonColumns(prefix, m)...)
		}
	}
	return cols
}

func (t *Table) Count() int {
	return len(t.Rows)
}

func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Periods []civil.Date `json:"periods"`
		Metrics []string     `json:"metrics"`
		Columns []string     `json:"columns"`
		Data    []Row        `json:"data"`
		Count   int          `json:"count"`
	}{t.Periods, t.Metrics, t.Columns, t.Rows, len(t.Rows)})
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.EntityLabel != b.EntityLabel {
			return a.EntityLabel < b.EntityLabel
		}
		if a.EntityKey != b.EntityKey {
			return a.EntityKey < b.EntityKey
		}
		return a.Period.After(b.Period)
	})
}
