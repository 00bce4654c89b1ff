package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/api/validators"
	"github.com/angelmondragon/sellerpulse-backend/internal/analytics"
	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
)

type sellerArgs struct {
	Seller string `json:"seller_name" validate:"required,max=256"`
}

type selectionArgs struct {
	ParentNames []string `json:"parent_asins" validate:"omitempty,max=500,dive,required,max=256"`
	ChildASINs  []string `json:"child_asins" validate:"omitempty,max=2000,dive,required,max=32"`
}

func (s selectionArgs) selection() types.Selection {
	return types.Selection{ParentNames: s.ParentNames, ChildASINs: s.ChildASINs}
}

type metricsArgs struct {
	sellerArgs
	selectionArgs
	StartDate         civil.Date `json:"start_date"`
	EndDate           civil.Date `json:"end_date"`
	Level             string     `json:"aggregation_level" validate:"omitempty,oneof=account parent child custom"`
	Granularity       string     `json:"granularity" validate:"omitempty,oneof=weekly monthly"`
	IncludeComparison bool       `json:"include_comparison"`
	Metrics           []string   `json:"metrics" validate:"omitempty,max=64,dive,required"`
}

func (a metricsArgs) request() types.MetricsRequest {
	return types.MetricsRequest{
		Seller:            a.Seller,
		Selection:         a.selection(),
		StartDate:         a.StartDate,
		EndDate:           a.EndDate,
		Level:             a.Level,
		Granularity:       a.Granularity,
		IncludeComparison: a.IncludeComparison,
		Metrics:           a.Metrics,
	}
}

type pivotArgs struct {
	metricsArgs
	Level         string `json:"aggregation_level" validate:"omitempty,oneof=account parent child"`
	Preset        string `json:"metric_preset" validate:"omitempty,oneof=sales_overview advertising organic_vs_paid traffic conversion all"`
	IncludeTotals *bool  `json:"include_totals"`
	PeriodOrder   string `json:"period_order" validate:"omitempty,oneof=recent_first oldest_first"`
}

type yoyArgs struct {
	sellerArgs
	selectionArgs
	Month   civil.Date `json:"month"`
	Level   string     `json:"aggregation_level" validate:"omitempty,oneof=account parent child"`
	Metrics []string   `json:"metrics" validate:"omitempty,max=64,dive,required"`
}

type gapsArgs struct {
	sellerArgs
	Level       string     `json:"aggregation_level" validate:"omitempty,oneof=account parent child"`
	Granularity string     `json:"granularity" validate:"omitempty,oneof=weekly monthly"`
	Source      string     `json:"source" validate:"omitempty,oneof=business ads combined"`
	StartDate   civil.Date `json:"start_date"`
	EndDate     civil.Date `json:"end_date"`
}

// Executor runs tool calls against the analytics service.
type Executor struct {
	svc  analytics.Service
	logg *logger.Logger
}

func NewExecutor(svc analytics.Service, logg *logger.Logger) (*Executor, error) {
	if svc == nil {
		return nil, errors.New("analytics service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Executor{svc: svc, logg: logg}, nil
}

// Execute decodes and validates args for the named tool and runs it. The
// result is ready for JSON encoding.
func (e *Executor) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	ctx = e.logg.WithTool(ctx, name)
	if _, ok := Lookup(name); !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown tool %q", name)).
			WithDetails(map[string]any{"tools": Names()})
	}

	result, err := e.dispatch(ctx, name, args)
	if err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "reason", err.Error()), "tool call failed")
		return nil, err
	}
	e.logg.Debug(ctx, "tool call completed")
	return result, nil
}

func (e *Executor) dispatch(ctx context.Context, name string, raw json.RawMessage) (any, error) {
	switch name {
	case ListSellers:
		return e.svc.Sellers(ctx)
	case GetFilterOptions:
		return e.svc.FilterOptions(ctx)
	case GetSellerASINs, GetDataCoverage:
		var args sellerArgs
		if err := validators.DecodeJSON(raw, &args); err != nil {
			return nil, err
		}
		if name == GetDataCoverage {
			return e.svc.Coverage(ctx, args.Seller)
		}
		return e.svc.Hierarchy(ctx, args.Seller)
	case GetMetrics, GetCumulativeMetrics:
		var args metricsArgs
		if err := validators.DecodeJSON(raw, &args); err != nil {
			return nil, err
		}
		if name == GetCumulativeMetrics {
			return e.svc.CumulativeMetrics(ctx, args.request())
		}
		return e.svc.Metrics(ctx, args.request())
	case GetPivotTable:
		var args pivotArgs
		if err := validators.DecodeJSON(raw, &args); err != nil {
			return nil, err
		}
		req := args.request()
		req.Level = args.Level
		req.IncludeComparison = false
		return e.svc.Pivot(ctx, types.PivotRequest{
			MetricsRequest: req,
			Preset:         args.Preset,
			IncludeTotals:  args.IncludeTotals,
			PeriodOrder:    args.PeriodOrder,
		})
	case GetYoYComparison:
		var args yoyArgs
		if err := validators.DecodeJSON(raw, &args); err != nil {
			return nil, err
		}
		if args.Month.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"month": "is required"})
		}
		return e.svc.YoY(ctx, types.YoYRequest{
			Seller:    args.Seller,
			Selection: args.selection(),
			Month:     args.Month,
			Level:     args.Level,
			Metrics:   args.Metrics,
		})
	case GetDataGaps:
		var args gapsArgs
		if err := validators.DecodeJSON(raw, &args); err != nil {
			return nil, err
		}
		return e.svc.Gaps(ctx, types.GapsRequest{
			Seller:      args.Seller,
			Granularity: args.Granularity,
			Level:       args.Level,
			Source:      args.Source,
			StartDate:   args.StartDate,
			EndDate:     args.EndDate,
		})
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("tool %q has no handler", name))
}
