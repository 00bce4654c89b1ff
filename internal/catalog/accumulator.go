package catalog

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
)

// Components are the summed inputs every metric of a group is computed from:
// one entry per additive metric plus two per weighted ratio.
type Components map[string]Value

// Get returns the component or null.
func (c Components) Get(key string) Value {
	return c[key]
}

func weightedKey(name string) string { return name + ":weighted" }
func weightKey(name string) string   { return name + ":weight" }

type sum struct {
	total decimal.Decimal
	valid bool
}

// Accumulator sums fact rows of one group. Sums are kept in decimal so that
// regrouping the same rows never changes a total.
type Accumulator struct {
	sums        map[string]*sum
	hasBusiness bool
	hasAds      bool
}

func NewAccumulator() *Accumulator {
	return &Accumulator{sums: make(map[string]*sum)}
}

// HasBusiness reports whether any business row was added.
func (a *Accumulator) HasBusiness() bool { return a.hasBusiness }

// HasAds reports whether any ads row was added.
func (a *Accumulator) HasAds() bool { return a.hasAds }

// Empty reports whether nothing was added.
func (a *Accumulator) Empty() bool { return !a.hasBusiness && !a.hasAds }

func (a *Accumulator) slot(key string) *sum {
	s := a.sums[key]
	if s == nil {
		s = &sum{}
		a.sums[key] = s
	}
	return s
}

func (a *Accumulator) addDecimal(key string, d decimal.Decimal) {
	s := a.slot(key)
	s.total = s.total.Add(d)
	s.valid = true
}

func (a *Accumulator) addFloat(key string, v *float64) {
	a.slot(key)
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return
	}
	a.addDecimal(key, decimal.NewFromFloat(*v))
}

// AddBusiness folds one business report row into the group.
func (a *Accumulator) AddBusiness(row snapshot.BusinessRow) {
	a.hasBusiness = true
	for _, def := range definitions {
		if def.Source != SourceBusiness {
			continue
		}
		switch def.Kind {
		case KindAdditive:
			a.addFloat(def.Name, businessField(row, def.Field))
		case KindWeightedRatio:
			a.slot(weightedKey(def.Name))
			a.slot(weightKey(def.Name))
			value, weight := businessField(row, def.Field), businessField(row, def.Weight)
			if value == nil || weight == nil {
				continue
			}
			w := decimal.NewFromFloat(*weight)
			a.addDecimal(weightedKey(def.Name), decimal.NewFromFloat(*value).Mul(w))
			a.addDecimal(weightKey(def.Name), w)
		}
	}
}

// AddAds folds one advertising row into the group.
func (a *Accumulator) AddAds(row snapshot.AdsRow) {
	a.hasAds = true
	for _, def := range definitions {
		if def.Source == SourceAds && def.Kind == KindAdditive {
			a.addFloat(def.Name, adsField(row, def.Field))
		}
	}
}

// AddComponents folds an already-summed group into this one.
func (a *Accumulator) AddComponents(c Components) {
	a.hasBusiness = true
	a.hasAds = true
	for key, v := range c {
		a.addFloat(key, v.Ptr())
	}
}

// Merge folds another accumulator into this one.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	a.hasBusiness = a.hasBusiness || other.hasBusiness
	a.hasAds = a.hasAds || other.hasAds
	for key, s := range other.sums {
		if s.valid {
			a.addDecimal(key, s.total)
		} else {
			a.slot(key)
		}
	}
}

// Components returns the group sums. A table that contributed no rows reads
// as zero; a column that was present but always null stays null.
func (a *Accumulator) Components() Components {
	out := make(Components, len(a.sums))
	for _, def := range definitions {
		switch def.Kind {
		case KindAdditive:
			out[def.Name] = a.value(def.Name, a.seen(def.Source))
		case KindWeightedRatio:
			out[weightedKey(def.Name)] = a.value(weightedKey(def.Name), a.seen(def.Source))
			out[weightKey(def.Name)] = a.value(weightKey(def.Name), a.seen(def.Source))
		}
	}
	return out
}

func (a *Accumulator) seen(source Source) bool {
	switch source {
	case SourceBusiness:
		return a.hasBusiness
	case SourceAds:
		return a.hasAds
	}
	return true
}

func (a *Accumulator) value(key string, seen bool) Value {
	if !seen {
		return Some(0)
	}
	s := a.sums[key]
	if s == nil || !s.valid {
		return Null
	}
	f, _ := s.total.Float64()
	return Some(f)
}

func businessField(row snapshot.BusinessRow, field Field) *float64 {
	switch field {
	case FieldOrderedProductSales:
		return row.OrderedProductSales
	case FieldSessions:
		return row.Sessions
	case FieldUnitsOrdered:
		return row.UnitsOrdered
	case FieldPageViews:
		return row.PageViews
	case FieldUnitsRefunded:
		return row.UnitsRefunded
	case FieldBuyBoxPercentage:
		return row.BuyBoxPercentage
	}
	return nil
}

func adsField(row snapshot.AdsRow, field Field) *float64 {
	switch field {
	case FieldAdSpend:
		return row.Spend
	case FieldAdSales:
		return row.Sales
	case FieldImpressions:
		return row.Impressions
	case FieldClicks:
		return row.Clicks
	case FieldAdOrders:
		return row.Orders
	case FieldAdUnits:
		return row.Units
	}
	return nil
}
