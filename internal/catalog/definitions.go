// Package catalog is the fixed registry of metric definitions. Each metric is
// one variant of a closed union: an additive source field, a ratio of two other
// metrics, a weighted ratio, or a derived formula.
package catalog

import (
	"fmt"

	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

type Kind int

const (
	KindAdditive Kind = iota + 1
	KindRatio
	KindWeightedRatio
	KindDerived
)

func (k Kind) String() string {
	switch k {
	case KindAdditive:
		return "additive"
	case KindRatio:
		return "ratio"
	case KindWeightedRatio:
		return "weighted_ratio"
	case KindDerived:
		return "derived"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Source is the snapshot table a metric is read from.
type Source string

const (
	SourceBusiness Source = "business"
	SourceAds      Source = "ads"
	SourceComputed Source = "computed"
)

// Field names a numeric column of a business or ads row.
type Field int

const (
	FieldNone Field = iota
	FieldOrderedProductSales
	FieldSessions
	FieldUnitsOrdered
	FieldPageViews
	FieldUnitsRefunded
	FieldBuyBoxPercentage
	FieldAdSpend
	FieldAdSales
	FieldImpressions
	FieldClicks
	FieldAdOrders
	FieldAdUnits
)

// Formula identifies a derived metric's closed-form expression.
type Formula int

const (
	FormulaNone Formula = iota
	FormulaOrganicSales
)

// Format hints how a value is displayed.
type Format string

const (
	FormatCurrency Format = "currency"
	FormatCount    Format = "count"
	FormatPercent  Format = "percent"
	FormatRatio    Format = "ratio"
)

const unrounded int32 = -1

// Definition describes one metric. Only the fields of its Kind are set.
type Definition struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Kind   Kind   `json:"kind"`
	Format Format `json:"format"`
	Source Source `json:"source"`

	Field Field `json:"-"`

	// Ratio: Scale * Numerator / Denominator.
	Numerator   string  `json:"numerator,omitempty"`
	Denominator string  `json:"denominator,omitempty"`
	Scale       float64 `json:"-"`
	// ZeroWhenEmpty yields 0 instead of null for a zero denominator.
	ZeroWhenEmpty bool `json:"-"`
	// NullWhenNumeratorZero treats a zero numerator as undefined rather than 0.
	NullWhenNumeratorZero bool `json:"-"`

	// Weighted ratio: sum(Field * Weight) / sum(Weight).
	Weight Field `json:"-"`

	Formula Formula `json:"-"`

	Places int32 `json:"-"`
}

var (
	definitions = []Definition{
		additive("total_sales", "Total Sales", SourceBusiness, FieldOrderedProductSales, FormatCurrency),
		additive("sessions", "Sessions", SourceBusiness, FieldSessions, FormatCount),
		additive("units", "Units Ordered", SourceBusiness, FieldUnitsOrdered, FormatCount),
		additive("page_views", "Page Views", SourceBusiness, FieldPageViews, FormatCount),
		additive("units_refunded", "Units Refunded", SourceBusiness, FieldUnitsRefunded, FormatCount),
		additive("ad_spend", "Ad Spend", SourceAds, FieldAdSpend, FormatCurrency),
		additive("ad_sales", "Ad Sales", SourceAds, FieldAdSales, FormatCurrency),
		additive("impressions", "Impressions", SourceAds, FieldImpressions, FormatCount),
		additive("clicks", "Clicks", SourceAds, FieldClicks, FormatCount),
		additive("ad_orders", "Ad Orders", SourceAds, FieldAdOrders, FormatCount),
		additive("ad_units", "Ad Units", SourceAds, FieldAdUnits, FormatCount),
		{
			Name: "organic_sales", Label: "Organic Sales", Kind: KindDerived, Format: FormatCurrency,
			Source: SourceComputed, Formula: FormulaOrganicSales, Places: 2,
		},
		ratio("cvr_pct", "Conversion Rate %", "units", "sessions", 100, 2, true, FormatPercent),
		ratio("ctr_pct", "CTR %", "clicks", "impressions", 100, 2, true, FormatPercent),
		ratio("roas", "ROAS", "ad_sales", "ad_spend", 1, 2, false, FormatRatio),
		nullOnZeroNumerator(ratio("acos_pct", "ACOS %", "ad_spend", "ad_sales", 100, 1, false, FormatPercent)),
		ratio("tacos_pct", "TACoS %", "ad_spend", "total_sales", 100, 1, false, FormatPercent),
		ratio("cpc", "CPC", "ad_spend", "clicks", 1, 2, false, FormatCurrency),
		ratio("avg_price", "Average Price", "total_sales", "units", 1, 2, false, FormatCurrency),
		ratio("refund_rate_pct", "Refund Rate %", "units_refunded", "units", 100, 2, false, FormatPercent),
		ratio("organic_pct", "Organic %", "organic_sales", "total_sales", 100, 1, false, FormatPercent),
		ratio("ad_sales_pct", "Ad Sales %", "ad_sales", "total_sales", 100, 1, false, FormatPercent),
		{
			Name: "buy_box_pct", Label: "Buy Box %", Kind: KindWeightedRatio, Format: FormatPercent,
			Source: SourceBusiness, Field: FieldBuyBoxPercentage, Weight: FieldSessions, Places: 2,
		},
	}

	byName = indexDefinitions(definitions)

	presets = map[enums.MetricPreset][]string{
		enums.MetricPresetSalesOverview: {"total_sales", "sessions", "units", "cvr_pct"},
		enums.MetricPresetAdvertising:   {"ad_spend", "ad_sales", "roas", "acos_pct", "impressions", "clicks", "ctr_pct"},
		enums.MetricPresetOrganicVsPaid: {"total_sales", "ad_sales", "organic_sales", "organic_pct", "tacos_pct"},
		enums.MetricPresetTraffic:       {"sessions", "page_views", "impressions", "clicks", "cvr_pct", "ctr_pct"},
		enums.MetricPresetConversion:    {"sessions", "units", "cvr_pct", "avg_price", "buy_box_pct", "refund_rate_pct"},
	}
)

func additive(name, label string, source Source, field Field, format Format) Definition {
	return Definition{Name: name, Label: label, Kind: KindAdditive, Format: format, Source: source, Field: field, Places: unrounded}
}

func ratio(name, label, numerator, denominator string, scale float64, places int32, zeroWhenEmpty bool, format Format) Definition {
	return Definition{
		Name: name, Label: label, Kind: KindRatio, Format: format, Source: SourceComputed,
		Numerator: numerator, Denominator: denominator, Scale: scale, ZeroWhenEmpty: zeroWhenEmpty, Places: places,
	}
}

func nullOnZeroNumerator(def Definition) Definition {
	def.NullWhenNumeratorZero = true
	return def
}

func indexDefinitions(defs []Definition) map[string]Definition {
	index := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if _, dup := index[def.Name]; dup {
			panic(fmt.Sprintf("catalog: duplicate metric %q", def.Name))
		}
		index[def.Name] = def
	}
	for _, def := range defs {
		if def.Kind != KindRatio {
			continue
		}
		for _, dep := range []string{def.Numerator, def.Denominator} {
			if _, ok := index[dep]; !ok {
				panic(fmt.Sprintf("catalog: metric %q depends on unknown %q", def.Name, dep))
			}
		}
	}
	return index
}

// Definitions returns every metric in display order.
func Definitions() []Definition {
	return append([]Definition(nil), definitions...)
}

// Lookup finds a metric by name.
func Lookup(name string) (Definition, bool) {
	def, ok := byName[name]
	return def, ok
}

// Names returns every metric name in display order.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for _, def := range definitions {
		names = append(names, def.Name)
	}
	return names
}

// AdditiveNames returns the metrics that may be summed across groups.
func AdditiveNames() []string {
	var names []string
	for _, def := range definitions {
		if def.Kind == KindAdditive {
			names = append(names, def.Name)
		}
	}
	return names
}

// IsAdditive reports whether name can be summed directly.
func IsAdditive(name string) bool {
	def, ok := byName[name]
	return ok && def.Kind == KindAdditive
}

// PresetMetrics resolves a preset to its metric names.
func PresetMetrics(preset enums.MetricPreset) ([]string, error) {
	if preset == enums.MetricPresetAll {
		return Names(), nil
	}
	names, ok := presets[preset]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("unknown metric preset %q", preset)).
			WithDetails(map[string]any{"metric_preset": string(preset), "allowed": enums.MetricPresets()})
	}
	return append([]string(nil), names...), nil
}

// ParsePreset parses and resolves a preset name in one step.
func ParsePreset(raw string) (enums.MetricPreset, []string, error) {
	preset, err := enums.ParseMetricPreset(raw)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, err.Error()).
			WithDetails(map[string]any{"metric_preset": raw, "allowed": enums.MetricPresets()})
	}
	names, err := PresetMetrics(preset)
	return preset, names, err
}
