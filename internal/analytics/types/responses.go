package types

import (
	"github.com/angelmondragon/sellerpulse-backend/internal/catalog"
	"github.com/angelmondragon/sellerpulse-backend/internal/gaps"
	"github.com/angelmondragon/sellerpulse-backend/internal/identity"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

type SellersResponse struct {
	Sellers []identity.Seller `json:"sellers"`
	Count   int               `json:"count"`
}

// HierarchyResponse is the product tree a seller's ASIN picker renders.
type HierarchyResponse struct {
	Seller    string            `json:"seller_name"`
	Parents   []identity.Parent `json:"parents"`
	Count     int               `json:"count"`
	ASINCount int               `json:"asin_count"`
	Conflicts int               `json:"conflicts"`
}

type GapsResponse struct {
	Seller      string            `json:"seller_name"`
	Granularity enums.Granularity `json:"granularity"`
	Source      enums.GapSource   `json:"source"`
	Gaps        []gaps.Gap        `json:"gaps"`
	Count       int               `json:"count"`
}

type CoverageResponse struct {
	Seller   string          `json:"seller_name"`
	Coverage []gaps.Coverage `json:"coverage"`
	Count    int             `json:"count"`
}

// MetricInfo describes one metric for filter pickers.
type MetricInfo struct {
	Name     string         `json:"name"`
	Label    string         `json:"label"`
	Kind     catalog.Kind   `json:"kind"`
	Format   catalog.Format `json:"format"`
	Additive bool           `json:"additive"`
}

type FilterOptions struct {
	Metrics           []MetricInfo                    `json:"metrics"`
	MetricPresets     map[enums.MetricPreset][]string `json:"metric_presets"`
	AggregationLevels []enums.AggregationLevel        `json:"aggregation_levels"`
	Granularities     []enums.Granularity             `json:"granularities"`
	PeriodOrders      []enums.PeriodOrder             `json:"period_orders"`
	GapSources        []enums.GapSource               `json:"gap_sources"`
}

// RefreshResult reports a cache invalidation and optional warm-up.
type RefreshResult struct {
	Seller      string `json:"seller_name"`
	Invalidated int    `json:"invalidated"`
	Warmed      bool   `json:"warmed"`
}
