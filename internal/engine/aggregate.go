package engine

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/samber/lo"

	"github.com/angelmondragon/sellerpulse-backend/internal/catalog"
	"github.com/angelmondragon/sellerpulse-backend/internal/identity"
	"github.com/angelmondragon/sellerpulse-backend/internal/periods"
	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

// run is the per-call context. Everything it builds is private to one call.
type run struct {
	opts       Options
	query      MetricsQuery
	snap       *snapshot.Snapshot
	hierarchy  *identity.Hierarchy
	resolution identity.Resolution
	group      GroupFunc
}

func (e *Engine) newRun(snap *snapshot.Snapshot, q MetricsQuery) *run {
	r := &run{opts: e.opts, query: q, snap: snap, group: q.Group}
	if r.group == nil {
		r.group = singleGroup
	}
	if snap == nil {
		r.hierarchy = identity.Build(nil)
	} else {
		r.hierarchy = identity.Build(snap.Mapping)
	}
	r.resolution = r.hierarchy.Resolve(q.Selection)
	return r
}

func (r *run) empty() bool {
	return r.snap.Empty() || r.resolution.Empty()
}

// scope decides which periods one aggregation pass takes. Business and ads
// rows are both tested on their period start.
type scope func(period civil.Date) bool

func (r *run) inRange() scope {
	if r.query.Range.Explicit() {
		return r.query.normalizedPeriods(r.opts.WeekStart).Has
	}
	bound := periods.Range{Start: r.query.Range.Start, End: r.query.Range.End}
	return bound.Contains
}

func onlyPeriods(set periods.Set) scope {
	return set.Has
}

type entity struct {
	key   string
	label string
	attrs map[string]string
}

type groupKey struct {
	entity string
	period civil.Date
}

type businessKey struct {
	asin   string
	period civil.Date
}

type adsKey struct {
	asin     string
	date     civil.Date
	campaign string
}

// aggregation is the full outer join of business and ads rows on
// (entity, period): a group exists as soon as either side has a row.
type aggregation struct {
	entities map[string]entity
	groups   map[groupKey]*catalog.Accumulator
}

func (a *aggregation) accumulator(ent entity, period civil.Date) *catalog.Accumulator {
	if _, ok := a.entities[ent.key]; !ok {
		a.entities[ent.key] = ent
	}
	key := groupKey{entity: ent.key, period: period}
	acc, ok := a.groups[key]
	if !ok {
		acc = catalog.NewAccumulator()
		a.groups[key] = acc
	}
	return acc
}

func (a *aggregation) periods() []civil.Date {
	set := make(periods.Set)
	for key := range a.groups {
		set[key.period] = struct{}{}
	}
	out := set.Sorted()
	periods.SortDesc(out)
	return out
}

func (r *run) aggregate(sc scope) *aggregation {
	agg := &aggregation{
		entities: make(map[string]entity),
		groups:   make(map[groupKey]*catalog.Accumulator),
	}

	seenBusiness := make(map[businessKey]struct{})
	for _, row := range r.snap.Business {
		if row.Granularity != r.query.Granularity {
			continue
		}
		asin := strings.TrimSpace(row.ChildASIN)
		if !r.resolution.Contains(asin) {
			continue
		}
		period := r.businessPeriod(row)
		if !sc(period) {
			continue
		}
		if r.opts.BusinessPolicy == enums.DuplicatePolicyDedupe {
			key := businessKey{asin: asin, period: period}
			if _, dup := seenBusiness[key]; dup {
				continue
			}
			seenBusiness[key] = struct{}{}
		}
		ent, ok := r.entityOf(asin, row.SellerID, row.SellerName)
		if !ok {
			continue
		}
		agg.accumulator(ent, period).AddBusiness(row)
	}

	seenAds := make(map[adsKey]struct{})
	for _, row := range r.snap.Ads {
		asin := strings.TrimSpace(row.ChildASIN)
		if row.RecordDate.IsZero() || !r.resolution.Contains(asin) {
			continue
		}
		bucket := periods.Bucket(row.RecordDate, r.query.Granularity, r.opts.WeekStart)
		if !sc(bucket) {
			continue
		}
		if r.opts.AdsPolicy == enums.DuplicatePolicyDedupe {
			key := adsKey{asin: asin, date: row.RecordDate, campaign: row.CampaignName}
			if _, dup := seenAds[key]; dup {
				continue
			}
			seenAds[key] = struct{}{}
		}
		ent, ok := r.entityOf(asin, row.SellerID, row.SellerName)
		if !ok {
			continue
		}
		agg.accumulator(ent, bucket).AddAds(row)
	}
	return agg
}

func (r *run) businessPeriod(row snapshot.BusinessRow) civil.Date {
	if r.query.Granularity == enums.GranularityMonthly {
		return periods.MonthStart(row.PeriodStart)
	}
	return row.PeriodStart
}

// entityOf maps a fact row to its group at the requested level. ASINs missing
// from the mapping fall into the Unknown parent.
func (r *run) entityOf(asin, sellerID, sellerName string) (entity, bool) {
	entry, ok := r.hierarchy.Lookup(asin)
	if !ok {
		entry = identity.Entry{
			ChildASIN:      asin,
			NormalizedName: identity.UnknownName,
			DisplayName:    identity.UnknownName,
		}
	}
	if entry.SellerID == "" {
		entry.SellerID = strings.TrimSpace(sellerID)
	}
	if entry.SellerName == "" {
		entry.SellerName = strings.TrimSpace(sellerName)
	}

	switch r.query.Level {
	case enums.AggregationLevelChild:
		return entity{
			key:   asin,
			label: asin,
			attrs: map[string]string{"parent_name": entry.DisplayName, "variant_name": entry.VariantName},
		}, true
	case enums.AggregationLevelParent:
		return entity{key: entry.NormalizedName, label: entry.DisplayName}, true
	case enums.AggregationLevelAccount:
		id, _ := lo.Coalesce(strings.TrimSpace(sellerID), entry.SellerID)
		name, _ := lo.Coalesce(strings.TrimSpace(sellerName), entry.SellerName, id)
		key, _ := lo.Coalesce(id, name, identity.UnknownName)
		label, _ := lo.Coalesce(name, key)
		return entity{key: key, label: label}, true
	case enums.AggregationLevelCustom:
		key, label, ok := r.group(entry)
		if !ok || key == "" {
			return entity{}, false
		}
		label, _ = lo.Coalesce(label, key)
		return entity{key: key, label: label}, true
	}
	return entity{}, false
}

func (a *aggregation) rows(g enums.Granularity, metrics []string) []Row {
	out := make([]Row, 0, len(a.groups))
	for key, acc := range a.groups {
		ent := a.entities[key.entity]
		components := acc.Components()
		out = append(out, Row{
			EntityKey:   ent.key,
			EntityLabel: ent.label,
			Attributes:  ent.attrs,
			Period:      key.period,
			PeriodEnd:   periods.End(key.period, g),
			Values:      pick(catalog.Evaluate(components), metrics),
			Components:  components,
		})
	}
	return out
}

func (a *aggregation) cumulativeRows(g enums.Granularity, metrics []string) []Row {
	type span struct {
		acc         *catalog.Accumulator
		first, last civil.Date
		count       int
	}
	spans := make(map[string]*span)
	for key, acc := range a.groups {
		s, ok := spans[key.entity]
		if !ok {
			s = &span{acc: catalog.NewAccumulator(), first: key.period, last: key.period}
			spans[key.entity] = s
		}
		s.acc.Merge(acc)
		s.count++
		if key.period.Before(s.first) {
			s.first = key.period
		}
		if key.period.After(s.last) {
			s.last = key.period
		}
	}

	out := make([]Row, 0, len(spans))
	for entityKey, s := range spans {
		ent := a.entities[entityKey]
		components := s.acc.Components()
		out = append(out, Row{
			EntityKey:   ent.key,
			EntityLabel: ent.label,
			Attributes:  ent.attrs,
			Period:      s.first,
			PeriodEnd:   periods.End(s.last, g),
			PeriodCount: s.count,
			Values:      pick(catalog.Evaluate(components), metrics),
			Components:  components,
		})
	}
	return out
}

func pick(all catalog.Metrics, names []string) map[string]catalog.Value {
	out := make(map[string]catalog.Value, len(names))
	for _, name := range names {
		out[name] = all.Get(name)
	}
	return out
}
