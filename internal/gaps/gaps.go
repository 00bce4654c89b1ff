// Package gaps finds report periods that were never ingested, so a missing
// period is never mistaken for a period with zero activity.
package gaps

import (
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/internal/identity"
	"github.com/angelmondragon/sellerpulse-backend/internal/periods"
	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

type Query struct {
	Granularity enums.Granularity
	// Level defaults to account; custom grouping is not supported.
	Level  enums.AggregationLevel
	Source enums.GapSource
	// Range optionally bounds the expected sequence. An end past the latest
	// known period extends the sequence to it.
	Range periods.Range
}

type Gap struct {
	EntityKey          string            `json:"entity_key"`
	Entity             string            `json:"entity"`
	SellerName         string            `json:"seller_name,omitempty"`
	MissingPeriodStart civil.Date        `json:"missing_period_start"`
	MissingPeriodEnd   civil.Date        `json:"missing_period_end"`
	Granularity        enums.Granularity `json:"granularity"`
	GapType            enums.GapType     `json:"gap_type"`
	HasBusinessData    bool              `json:"has_business_data"`
	HasAdsData         bool              `json:"has_ads_data"`
}

type Detector struct {
	weekStart time.Weekday
}

func NewDetector(weekStart time.Weekday) *Detector {
	return &Detector{weekStart: weekStart}
}

type presence struct {
	key        string
	label      string
	sellerName string
	business   periods.Set
	ads        periods.Set
}

// Detect reports, per entity, the periods missing from the selected source
// between the entity's earliest known period and its latest known period (or
// the range end). Results are ordered by entity, then period ascending.
func (d *Detector) Detect(snap *snapshot.Snapshot, q Query) ([]Gap, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}
	if snap.Empty() {
		return []Gap{}, nil
	}

	entities := d.collect(snap, q)
	keys := make([]string, 0, len(entities))
	for key := range entities {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := entities[keys[i]], entities[keys[j]]
		if a.label != b.label {
			return a.label < b.label
		}
		return a.key < b.key
	})

	out := []Gap{}
	for _, key := range keys {
		out = append(out, entityGaps(entities[key], q)...)
	}
	return out, nil
}

func (q *Query) normalize() error {
	if q.Level == "" {
		q.Level = enums.AggregationLevelAccount
	}
	if q.Source == "" {
		q.Source = enums.GapSourceBusiness
	}
	if !q.Granularity.IsValid() {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "unknown granularity "+string(q.Granularity)).
			WithDetails(map[string]any{"field": "granularity", "allowed": enums.Granularities()})
	}
	if !q.Level.IsValid() || q.Level == enums.AggregationLevelCustom {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "unsupported aggregation level "+string(q.Level)).
			WithDetails(map[string]any{"field": "aggregation_level", "allowed": []enums.AggregationLevel{
				enums.AggregationLevelAccount, enums.AggregationLevelParent, enums.AggregationLevelChild,
			}})
	}
	if !q.Source.IsValid() {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "unknown gap source "+string(q.Source)).
			WithDetails(map[string]any{"field": "source"})
	}
	return nil
}

func (d *Detector) collect(snap *snapshot.Snapshot, q Query) map[string]*presence {
	h := identity.Build(snap.Mapping)
	entities := make(map[string]*presence)
	get := func(asin, sellerID, sellerName string) *presence {
		key, label := entityOf(h, q.Level, strings.TrimSpace(asin), strings.TrimSpace(sellerID), strings.TrimSpace(sellerName))
		p, ok := entities[key]
		if !ok {
			p = &presence{key: key, label: label, business: make(periods.Set), ads: make(periods.Set)}
			entities[key] = p
		}
		if p.sellerName == "" {
			p.sellerName = strings.TrimSpace(sellerName)
		}
		return p
	}

	for _, row := range snap.Business {
		if row.Granularity != q.Granularity || row.PeriodStart.IsZero() {
			continue
		}
		period := row.PeriodStart
		if q.Granularity == enums.GranularityMonthly {
			period = periods.MonthStart(period)
		}
		get(row.ChildASIN, row.SellerID, row.SellerName).business[period] = struct{}{}
	}
	for _, row := range snap.Ads {
		if row.RecordDate.IsZero() {
			continue
		}
		bucket := periods.Bucket(row.RecordDate, q.Granularity, d.weekStart)
		get(row.ChildASIN, row.SellerID, row.SellerName).ads[bucket] = struct{}{}
	}
	return entities
}

func entityOf(h *identity.Hierarchy, level enums.AggregationLevel, asin, sellerID, sellerName string) (string, string) {
	switch level {
	case enums.AggregationLevelChild:
		return asin, asin
	case enums.AggregationLevelParent:
		if entry, ok := h.Lookup(asin); ok {
			return entry.NormalizedName, entry.DisplayName
		}
		return identity.UnknownName, identity.UnknownName
	}
	key := sellerID
	if key == "" {
		key = sellerName
	}
	if key == "" {
		key = identity.UnknownName
	}
	label := sellerName
	if label == "" {
		label = key
	}
	return key, label
}

func entityGaps(p *presence, q Query) []Gap {
	var known periods.Set
	switch q.Source {
	case enums.GapSourceAds:
		known = p.ads
	case enums.GapSourceCombined:
		known = make(periods.Set, len(p.business)+len(p.ads))
		for d := range p.business {
			known[d] = struct{}{}
		}
		for d := range p.ads {
			known[d] = struct{}{}
		}
	default:
		known = p.business
	}
	if len(known) == 0 {
		return nil
	}

	sorted := known.Sorted()
	first, last := sorted[0], sorted[len(sorted)-1]
	if !q.Range.End.IsZero() && q.Range.End.After(last) {
		last = q.Range.End
	}

	var out []Gap
	for _, period := range periods.Sequence(first, last, q.Granularity) {
		if !q.Range.Contains(period) {
			continue
		}
		hasBusiness, hasAds := p.business.Has(period), p.ads.Has(period)
		gapType, missing := classify(q.Source, hasBusiness, hasAds)
		if !missing {
			continue
		}
		out = append(out, Gap{
			EntityKey:          p.key,
			Entity:             p.label,
			SellerName:         p.sellerName,
			MissingPeriodStart: period,
			MissingPeriodEnd:   periods.End(period, q.Granularity),
			Granularity:        q.Granularity,
			GapType:            gapType,
			HasBusinessData:    hasBusiness,
			HasAdsData:         hasAds,
		})
	}
	return out
}

func classify(source enums.GapSource, hasBusiness, hasAds bool) (enums.GapType, bool) {
	switch {
	case !hasBusiness && !hasAds:
		return enums.GapTypeMissingBoth, true
	case !hasBusiness && source != enums.GapSourceAds:
		return enums.GapTypeMissingBusiness, true
	case !hasAds && source != enums.GapSourceBusiness:
		return enums.GapTypeMissingAds, true
	}
	return "", false
}
