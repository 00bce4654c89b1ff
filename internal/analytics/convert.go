package analytics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/samber/lo"

	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	"github.com/angelmondragon/sellerpulse-backend/internal/catalog"
	"github.com/angelmondragon/sellerpulse-backend/internal/engine"
	"github.com/angelmondragon/sellerpulse-backend/internal/gaps"
	"github.com/angelmondragon/sellerpulse-backend/internal/identity"
	"github.com/angelmondragon/sellerpulse-backend/internal/periods"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

const (
	defaultMetricsLevel = enums.AggregationLevelAccount
	defaultPivotLevel   = enums.AggregationLevelParent
	defaultGranularity  = enums.GranularityWeekly
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func level(raw string, fallback enums.AggregationLevel) enums.AggregationLevel {
	if v := strings.ToLower(strings.TrimSpace(raw)); v != "" {
		return enums.AggregationLevel(v)
	}
	return fallback
}

func granularity(raw string) enums.Granularity {
	if v := strings.ToLower(strings.TrimSpace(raw)); v != "" {
		return enums.Granularity(v)
	}
	return defaultGranularity
}

func selection(sel types.Selection) identity.Selection {
	return identity.Selection{ChildASINs: sel.ChildASINs, ParentNames: sel.ParentNames}
}

func groupFunc(groups map[string][]string) engine.GroupFunc {
	if len(groups) == 0 {
		return nil
	}
	return engine.CustomGroups(groups)
}

// metricsQuery maps a request onto an engine query. Specific weeks apply to
// weekly requests and specific months to monthly ones.
func metricsQuery(req types.MetricsRequest, fallback enums.AggregationLevel) engine.MetricsQuery {
	gran := granularity(req.Granularity)
	explicit := append([]civil.Date(nil), req.Periods...)
	switch gran {
	case enums.GranularityWeekly:
		explicit = append(explicit, req.SpecificWeeks...)
	case enums.GranularityMonthly:
		explicit = append(explicit, req.SpecificMonths...)
	}
	return engine.MetricsQuery{
		Selection: selection(req.Selection),
		Range: engine.TimeRange{
			Start:   req.StartDate,
			End:     req.EndDate,
			Periods: lo.Uniq(explicit),
		},
		Level:             level(req.Level, fallback),
		Granularity:       gran,
		IncludeComparison: req.IncludeComparison,
		Metrics:           req.Metrics,
		Group:             groupFunc(req.CustomGroups),
	}
}

func yoyQuery(req types.YoYRequest) engine.YoYQuery {
	return engine.YoYQuery{
		Month:     req.Month,
		Level:     level(req.Level, defaultMetricsLevel),
		Selection: selection(req.Selection),
		Metrics:   req.Metrics,
		Group:     groupFunc(req.CustomGroups),
	}
}

func gapsQuery(req types.GapsRequest) gaps.Query {
	source := enums.GapSource(strings.ToLower(strings.TrimSpace(req.Source)))
	if source == "" {
		source = enums.GapSourceBusiness
	}
	return gaps.Query{
		Granularity: granularity(req.Granularity),
		Level:       level(req.Level, enums.AggregationLevelAccount),
		Source:      source,
		Range:       periods.Range{Start: req.StartDate, End: req.EndDate},
	}
}

type pivotOptions struct {
	preset        enums.MetricPreset
	includeTotals bool
	periodOrder   enums.PeriodOrder
}

func pivotOptionsOf(req types.PivotRequest) (pivotOptions, error) {
	opts := pivotOptions{includeTotals: true}
	if req.IncludeTotals != nil {
		opts.includeTotals = *req.IncludeTotals
	}
	if strings.TrimSpace(req.Preset) != "" {
		preset, _, err := catalog.ParsePreset(req.Preset)
		if err != nil {
			return opts, err
		}
		opts.preset = preset
	}
	order, err := enums.ParsePeriodOrder(req.PeriodOrder)
	if err != nil {
		return opts, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, err.Error()).
			WithDetails(map[string]any{"field": "period_order", "allowed": enums.PeriodOrders()})
	}
	opts.periodOrder = order
	return opts, nil
}

// exportFilename honours a requested name, forcing the .csv suffix, and
// otherwise derives one from the seller, level, granularity and date.
func exportFilename(requested, seller, lvl, gran string, now time.Time) string {
	name := strings.TrimSpace(requested)
	if name == "" {
		sellerPart := lo.Ternary(strings.TrimSpace(seller) == "", "all_sellers", seller)
		name = fmt.Sprintf("%s_%s_%s_%s", sellerPart, lvl, gran, now.UTC().Format("20060102"))
	}
	name = strings.TrimSuffix(name, ".csv")
	name = strings.Trim(unsafeFilename.ReplaceAllString(name, "_"), "._")
	if name == "" {
		name = "export"
	}
	return name + ".csv"
}

func filterOptions() (*types.FilterOptions, error) {
	presets := make(map[enums.MetricPreset][]string)
	for _, preset := range enums.MetricPresets() {
		names, err := catalog.PresetMetrics(preset)
		if err != nil {
			return nil, err
		}
		presets[preset] = names
	}
	metrics := lo.Map(catalog.Definitions(), func(def catalog.Definition, _ int) types.MetricInfo {
		return types.MetricInfo{
			Name:     def.Name,
			Label:    def.Label,
			Kind:     def.Kind,
			Format:   def.Format,
			Additive: catalog.IsAdditive(def.Name),
		}
	})
	return &types.FilterOptions{
		Metrics:       metrics,
		MetricPresets: presets,
		AggregationLevels: []enums.AggregationLevel{
			enums.AggregationLevelAccount, enums.AggregationLevelParent, enums.AggregationLevelChild, enums.AggregationLevelCustom,
		},
		Granularities: enums.Granularities(),
		PeriodOrders:  enums.PeriodOrders(),
		GapSources:    enums.GapSources(),
	}, nil
}
