package types

import (
	"cloud.google.com/go/civil"
)

// Selection narrows a request to products and/or child ASINs. Both empty
// selects every ASIN of the seller.
type Selection struct {
	ParentNames []string `json:"parent_asins,omitempty" validate:"omitempty,max=500,dive,required,max=256"`
	ChildASINs  []string `json:"child_asins,omitempty" validate:"omitempty,max=2000,dive,required,max=32"`
}

// MetricsRequest drives the metrics, cumulative, pivot and export operations.
// Enum fields are plain strings so an unknown value surfaces as a
// configuration error from the engine rather than a decode failure.
type MetricsRequest struct {
	Seller string `json:"seller_name" validate:"max=256"`
	Selection
	StartDate civil.Date `json:"start_date"`
	EndDate   civil.Date `json:"end_date"`
	// Periods lists explicit period starts and wins over the date bound.
	Periods           []civil.Date        `json:"periods,omitempty" validate:"omitempty,max=260"`
	SpecificWeeks     []civil.Date        `json:"specific_weeks,omitempty" validate:"omitempty,max=260"`
	SpecificMonths    []civil.Date        `json:"specific_months,omitempty" validate:"omitempty,max=120"`
	Level             string              `json:"aggregation_level"`
	Granularity       string              `json:"granularity"`
	IncludeComparison bool                `json:"include_comparison"`
	Metrics           []string            `json:"metrics,omitempty" validate:"omitempty,max=64,dive,required"`
	CustomGroups      map[string][]string `json:"custom_groups,omitempty" validate:"omitempty,max=100,dive,keys,required,max=128,endkeys,required"`
}

// PivotRequest extends MetricsRequest with pivot layout options.
type PivotRequest struct {
	MetricsRequest
	Preset        string   `json:"metric_preset"`
	IncludeTotals *bool    `json:"include_totals,omitempty"`
	MetricOrder   []string `json:"metric_order,omitempty"`
	PeriodOrder   string   `json:"period_order"`
}

// ExportRequest renders a pivot as CSV.
type ExportRequest struct {
	PivotRequest
	Filename string `json:"filename" validate:"max=200"`
}

// YoYRequest compares one month with the same month a year earlier.
type YoYRequest struct {
	Seller string `json:"seller_name" validate:"max=256"`
	Selection
	Month        civil.Date          `json:"month"`
	Level        string              `json:"aggregation_level"`
	Metrics      []string            `json:"metrics,omitempty" validate:"omitempty,max=64,dive,required"`
	CustomGroups map[string][]string `json:"custom_groups,omitempty" validate:"omitempty,max=100,dive,keys,required,max=128,endkeys,required"`
}

// GapsRequest drives gap detection.
type GapsRequest struct {
	Seller      string     `json:"seller_name" validate:"max=256"`
	Granularity string     `json:"granularity"`
	Level       string     `json:"aggregation_level"`
	Source      string     `json:"source"`
	StartDate   civil.Date `json:"start_date"`
	EndDate     civil.Date `json:"end_date"`
}
