// Package engine aggregates business and advertising rows into long-format
// metric tables. It is pure computation over an immutable snapshot: no I/O,
// no shared state and no mutation of its inputs.
package engine

import (
	"fmt"
	"time"

	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

// Options configure how fact rows are bucketed and de-duplicated.
type Options struct {
	WeekStart      time.Weekday
	BusinessPolicy enums.DuplicatePolicy
	AdsPolicy      enums.DuplicatePolicy
}

func DefaultOptions() Options {
	return Options{
		WeekStart:      time.Sunday,
		BusinessPolicy: enums.DuplicatePolicySum,
		AdsPolicy:      enums.DuplicatePolicySum,
	}
}

type Engine struct {
	opts Options
}

func New(opts Options) (*Engine, error) {
	if opts.BusinessPolicy == "" {
		opts.BusinessPolicy = enums.DuplicatePolicySum
	}
	if opts.AdsPolicy == "" {
		opts.AdsPolicy = enums.DuplicatePolicySum
	}
	if !opts.BusinessPolicy.IsValid() {
		return nil, configurationError("business_duplicates", string(opts.BusinessPolicy), []enums.DuplicatePolicy{enums.DuplicatePolicySum, enums.DuplicatePolicyDedupe})
	}
	if !opts.AdsPolicy.IsValid() {
		return nil, configurationError("ads_duplicates", string(opts.AdsPolicy), []enums.DuplicatePolicy{enums.DuplicatePolicySum, enums.DuplicatePolicyDedupe})
	}
	if opts.WeekStart < time.Sunday || opts.WeekStart > time.Saturday {
		return nil, configurationError("week_start", fmt.Sprint(int(opts.WeekStart)), "sunday..saturday")
	}
	return &Engine{opts: opts}, nil
}

func (e *Engine) Options() Options {
	return e.opts
}

// GetMetrics groups the snapshot by entity and period and computes every
// requested metric, optionally with period-over-period comparison columns.
func (e *Engine) GetMetrics(snap *snapshot.Snapshot, q MetricsQuery) (*Table, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	r := e.newRun(snap, q)
	table := newTable(q, false)
	if r.empty() {
		return table, nil
	}

	main := r.aggregate(r.inRange())
	rows := main.rows(q.Granularity, table.Metrics)
	if q.IncludeComparison {
		r.attachComparisons(main, rows, table.Metrics)
	}
	sortRows(rows)

	table.Rows = rows
	table.Periods = main.periods()
	return table, nil
}

// GetCumulativeMetrics runs the same pipeline but collapses the period
// dimension: one row per entity over the whole requested window.
func (e *Engine) GetCumulativeMetrics(snap *snapshot.Snapshot, q MetricsQuery) (*Table, error) {
	q.IncludeComparison = false
	if err := q.validate(); err != nil {
		return nil, err
	}
	r := e.newRun(snap, q)
	table := newTable(q, true)
	if r.empty() {
		return table, nil
	}

	main := r.aggregate(r.inRange())
	rows := main.cumulativeRows(q.Granularity, table.Metrics)
	sortRows(rows)

	table.Rows = rows
	table.Periods = main.periods()
	return table, nil
}

func configurationError(field, value string, allowed any) error {
	return pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("unknown %s %q", field, value)).
		WithDetails(map[string]any{"field": field, "value": value, "allowed": allowed})
}

func validationError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]any{"field": field})
}
