// Package pivot reshapes a long metric table into one row per entity with a
// column per (period, metric) pair.
package pivot

import (
	"encoding/json"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/internal/catalog"
	"github.com/angelmondragon/sellerpulse-backend/internal/engine"
	"github.com/angelmondragon/sellerpulse-backend/internal/periods"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

const TotalKey = "TOTAL"

// Column carries the display label and the period it belongs to side by
// side, so the period never has to be parsed back out of the label.
type Column struct {
	Key          string     `json:"key"`
	DisplayLabel string     `json:"display_label"`
	PeriodKey    civil.Date `json:"period_key"`
	Metric       string     `json:"metric"`
}

type Row struct {
	EntityKey   string
	EntityLabel string
	Attributes  map[string]string
	Total       bool
	// Cells are keyed by Column.Key; a missing cell is null.
	Cells map[string]catalog.Value
}

func (r Row) Cell(key string) catalog.Value {
	return r.Cells[key]
}

func (r Row) MarshalJSON() ([]byte, error) {
	record := make(map[string]any, len(r.Cells)+4)
	record[engine.ColumnEntityKey] = r.EntityKey
	record[engine.ColumnEntity] = r.EntityLabel
	for k, v := range r.Attributes {
		record[k] = v
	}
	for k, v := range r.Cells {
		record[k] = v
	}
	return json.Marshal(record)
}

type Pivot struct {
	Granularity enums.Granularity
	Preset      enums.MetricPreset
	Periods     []civil.Date
	Metrics     []string
	Columns     []Column
	Rows        []Row
}

func (p *Pivot) Count() int {
	return len(p.Rows)
}

func (p *Pivot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Periods []civil.Date `json:"periods"`
		Metrics []string     `json:"metrics"`
		Columns []Column     `json:"columns"`
		Data    []Row        `json:"data"`
		Count   int          `json:"count"`
	}{p.Periods, p.Metrics, p.Columns, p.Rows, len(p.Rows)})
}

// Build pivots a long table. The TOTAL row is recomputed from the summed
// components of each period, never from the per-entity ratios.
func Build(table *engine.Table, preset enums.MetricPreset, includeTotals bool) (*Pivot, error) {
	if table == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pivot requires a metrics table")
	}
	if table.Cumulative {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cumulative tables cannot be pivoted")
	}
	metrics, err := presetMetrics(preset, table.Metrics)
	if err != nil {
		return nil, err
	}

	dates := append([]civil.Date(nil), table.Periods...)
	periods.SortDesc(dates)
	labels := periodLabels(dates, table.Granularity)

	out := &Pivot{
		Granularity: table.Granularity,
		Preset:      preset,
		Periods:     dates,
		Metrics:     metrics,
		Columns:     make([]Column, 0, len(dates)*len(metrics)),
		Rows:        []Row{},
	}
	for _, p := range dates {
		for _, m := range metrics {
			out.Columns = append(out.Columns, Column{
				Key:          labels[p] + "_" + m,
				DisplayLabel: labels[p],
				PeriodKey:    p,
				Metric:       m,
			})
		}
	}

	byEntity := make(map[string]*Row)
	var order []string
	for _, src := range table.Rows {
		row, ok := byEntity[src.EntityKey]
		if !ok {
			row = &Row{
				EntityKey:   src.EntityKey,
				EntityLabel: src.EntityLabel,
				Attributes:  src.Attributes,
				Cells:       make(map[string]catalog.Value),
			}
			byEntity[src.EntityKey] = row
			order = append(order, src.EntityKey)
		}
		for _, m := range metrics {
			if v := src.Value(m); v.Valid {
				row.Cells[labels[src.Period]+"_"+m] = v
			}
		}
	}
	for _, key := range order {
		out.Rows = append(out.Rows, *byEntity[key])
	}
	sortRows(out.Rows, out.Columns)

	if includeTotals && len(table.Rows) > 0 {
		out.Rows = append(out.Rows, totalRow(table, metrics, labels))
	}
	return out, nil
}

func presetMetrics(preset enums.MetricPreset, available []string) ([]string, error) {
	if preset == "" {
		preset = enums.MetricPresetAll
	}
	if preset == enums.MetricPresetAll {
		return append([]string(nil), available...), nil
	}
	names, err := catalog.PresetMetrics(preset)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(available))
	for _, name := range available {
		present[name] = struct{}{}
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := present[name]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// periodLabels gives each period its short tag. Periods whose tags collide
// get their year appended.
func periodLabels(dates []civil.Date, g enums.Granularity) map[civil.Date]string {
	byLabel := make(map[string][]civil.Date)
	for _, p := range dates {
		label := periods.Label(p, g)
		byLabel[label] = append(byLabel[label], p)
	}
	out := make(map[civil.Date]string, len(dates))
	for label, group := range byLabel {
		for _, p := range group {
			if len(group) > 1 {
				out[p] = fmt.Sprintf("%s_%d", label, p.Year)
			} else {
				out[p] = label
			}
		}
	}
	return out
}

// sortRows orders rows by the first column's value descending, nulls last,
// then by label.
func sortRows(rows []Row, columns []Column) {
	var lead string
	if len(columns) > 0 {
		lead = columns[0].Key
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Cell(lead), rows[j].Cell(lead)
		if a.Valid != b.Valid {
			return a.Valid
		}
		if a.Valid && a.Float64 != b.Float64 {
			return a.Float64 > b.Float64
		}
		if rows[i].EntityLabel != rows[j].EntityLabel {
			return rows[i].EntityLabel < rows[j].EntityLabel
		}
		return rows[i].EntityKey < rows[j].EntityKey
	})
}

func totalRow(table *engine.Table, metrics []string, labels map[civil.Date]string) Row {
	perPeriod := make(map[civil.Date]*catalog.Accumulator)
	for _, src := range table.Rows {
		acc, ok := perPeriod[src.Period]
		if !ok {
			acc = catalog.NewAccumulator()
			perPeriod[src.Period] = acc
		}
		acc.AddComponents(src.Components)
	}

	total := Row{EntityKey: TotalKey, EntityLabel: TotalKey, Total: true, Cells: make(map[string]catalog.Value)}
	for p, acc := range perPeriod {
		values := catalog.Evaluate(acc.Components())
		for _, m := range metrics {
			if v := values.Get(m); v.Valid {
				total.Cells[labels[p]+"_"+m] = v
			}
		}
	}
	return total
}
