// Package tools exposes the analytics operations as tool-calling functions
// with JSON input schemas.
package tools

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

const (
	ListSellers          = "list_sellers"
	GetSellerASINs       = "get_seller_asins"
	GetMetrics           = "get_metrics"
	GetCumulativeMetrics = "get_cumulative_metrics"
	GetPivotTable        = "get_pivot_table"
	GetYoYComparison     = "get_yoy_comparison"
	GetDataCoverage      = "get_data_coverage"
	GetDataGaps          = "get_data_gaps"
	GetFilterOptions     = "get_filter_options"
)

// Property is one JSON schema property.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Format      string    `json:"format,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`
	Default     any       `json:"default,omitempty"`
}

type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Definition describes one callable tool.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"input_schema"`
}

var definitions = []Definition{
	{
		Name:        ListSellers,
		Description: "List every seller with its marketplace and ASIN counts. Call this first; the seller_name it returns is the key for every other tool.",
		InputSchema: object(nil),
	},
	{
		Name:        GetSellerASINs,
		Description: "Return a seller's product hierarchy: each parent product with its child ASINs and variant names.",
		InputSchema: object(props(sellerProp()), "seller_name"),
	},
	{
		Name: GetMetrics,
		Description: "Return per-period metrics for a seller. Rows are grouped by aggregation_level (account, parent, child or custom) " +
			"and bucketed weekly or monthly. Ratios are recomputed from summed components. Set include_comparison for period-over-period change columns.",
		InputSchema: object(props(
			sellerProp(), selectionProps(), rangeProps(),
			levelProp(enums.AggregationLevels(), enums.AggregationLevelAccount),
			granularityProp(),
			map[string]Property{
				"include_comparison": {Type: "boolean", Description: "Add previous-period value, change and percent change columns", Default: false},
				"metrics":            metricsProp(),
			},
		), "seller_name"),
	},
	{
		Name:        GetCumulativeMetrics,
		Description: "Return one row per entity with metrics totalled across every period in range. Additive metrics are summed and ratios recomputed from the totals.",
		InputSchema: object(props(
			sellerProp(), selectionProps(), rangeProps(),
			levelProp(enums.AggregationLevels(), enums.AggregationLevelAccount),
			granularityProp(),
			map[string]Property{"metrics": metricsProp()},
		), "seller_name"),
	},
	{
		Name: GetPivotTable,
		Description: "Return a wide table with one row per entity and one column per period and metric, labelled like Jan_05_total_sales. " +
			"Pick metrics with metric_preset. A TOTAL row recomputed from the summed components is appended unless include_totals is false.",
		InputSchema: object(props(
			sellerProp(), selectionProps(), rangeProps(),
			levelProp(pivotLevels(), enums.AggregationLevelParent),
			granularityProp(),
			map[string]Property{
				"metric_preset":  {Type: "string", Description: "Preset group of metrics", Enum: names(enums.MetricPresets())},
				"include_totals": {Type: "boolean", Description: "Append a TOTAL row", Default: true},
				"period_order":   {Type: "string", Description: "Column order of periods", Enum: names(enums.PeriodOrders()), Default: string(enums.PeriodOrderRecentFirst)},
			},
		), "seller_name"),
	},
	{
		Name: GetYoYComparison,
		Description: "Compare one month with the same month a year earlier. Each metric gets _current, _prior, _yoy_change and _yoy_pct columns; " +
			"entities without prior-year data keep null prior columns.",
		InputSchema: object(props(
			sellerProp(), selectionProps(),
			levelProp(pivotLevels(), enums.AggregationLevelAccount),
			map[string]Property{
				"month":   {Type: "string", Format: "date", Description: "First day of the month to compare, YYYY-MM-DD"},
				"metrics": metricsProp(),
			},
		), "seller_name", "month"),
	},
	{
		Name:        GetDataCoverage,
		Description: "Summarise which dates a seller has business report and advertising data for.",
		InputSchema: object(props(sellerProp()), "seller_name"),
	},
	{
		Name:        GetDataGaps,
		Description: "List the weeks or months missing from a seller's reports between the first period with data and the end date.",
		InputSchema: object(props(
			sellerProp(),
			levelProp(pivotLevels(), enums.AggregationLevelAccount),
			granularityProp(),
			map[string]Property{
				"source":     {Type: "string", Description: "Which report's periods count as present", Enum: names(enums.GapSources()), Default: string(enums.GapSourceBusiness)},
				"start_date": dateProp("Only report gaps on or after this date"),
				"end_date":   dateProp("Report gaps up to this date, past the latest data if needed"),
			},
		), "seller_name"),
	},
	{
		Name:        GetFilterOptions,
		Description: "List the available metrics, metric presets, aggregation levels, granularities and gap sources.",
		InputSchema: object(nil),
	},
}

var byName = lo.SliceToMap(definitions, func(d Definition) (string, Definition) { return d.Name, d })

// Definitions returns every tool definition in a stable order.
func Definitions() []Definition {
	return append([]Definition(nil), definitions...)
}

// Lookup returns the definition of a tool.
func Lookup(name string) (Definition, bool) {
	def, ok := byName[name]
	return def, ok
}

// Names lists the tool names.
func Names() []string {
	return lo.Map(definitions, func(d Definition, _ int) string { return d.Name })
}

func object(properties map[string]Property, required ...string) Schema {
	if properties == nil {
		properties = map[string]Property{}
	}
	if required == nil {
		required = []string{}
	}
	return Schema{Type: "object", Properties: properties, Required: required}
}

func props(groups ...map[string]Property) map[string]Property {
	return lo.Assign(groups...)
}

func sellerProp() map[string]Property {
	return map[string]Property{
		"seller_name": {Type: "string", Description: "Seller name as returned by list_sellers"},
	}
}

func selectionProps() map[string]Property {
	return map[string]Property{
		"parent_asins": {Type: "array", Items: &Property{Type: "string"}, Description: "Product names to include; each expands to all of its child ASINs"},
		"child_asins":  {Type: "array", Items: &Property{Type: "string"}, Description: "Child ASINs to include"},
	}
}

func rangeProps() map[string]Property {
	return map[string]Property{
		"start_date": dateProp("Inclusive start date"),
		"end_date":   dateProp("Inclusive end date"),
	}
}

func dateProp(description string) Property {
	return Property{Type: "string", Format: "date", Description: description + ", YYYY-MM-DD"}
}

func levelProp(levels []enums.AggregationLevel, fallback enums.AggregationLevel) map[string]Property {
	return map[string]Property{
		"aggregation_level": {Type: "string", Description: "Row grouping", Enum: names(levels), Default: string(fallback)},
	}
}

func granularityProp() map[string]Property {
	return map[string]Property{
		"granularity": {Type: "string", Description: "Period size", Enum: names(enums.Granularities()), Default: string(enums.GranularityWeekly)},
	}
}

func metricsProp() Property {
	return Property{Type: "array", Items: &Property{Type: "string"}, Description: "Metric names to return; defaults to every metric"}
}

func pivotLevels() []enums.AggregationLevel {
	return []enums.AggregationLevel{enums.AggregationLevelAccount, enums.AggregationLevelParent, enums.AggregationLevelChild}
}

func names[T fmt.Stringer](values []T) []string {
	return lo.Map(values, func(v T, _ int) string { return v.String() })
}
