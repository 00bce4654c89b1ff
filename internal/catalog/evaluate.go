package catalog

import "github.com/shopspring/decimal"

// Metrics maps metric names to computed values.
type Metrics map[string]Value

// Get returns the metric or null.
func (m Metrics) Get(name string) Value {
	return m[name]
}

var evaluationOrder = []Kind{KindAdditive, KindDerived, KindWeightedRatio, KindRatio}

// Evaluate computes every metric from a group's components. Ratios are always
// recomputed from summed inputs and rounded only once all values exist.
func Evaluate(c Components) Metrics {
	raw := make(Metrics, len(definitions))
	for _, kind := range evaluationOrder {
		for _, def := range definitions {
			if def.Kind != kind {
				continue
			}
			switch kind {
			case KindAdditive:
				raw[def.Name] = c.Get(def.Name)
			case KindDerived:
				raw[def.Name] = evalFormula(def.Formula, raw)
			case KindWeightedRatio:
				raw[def.Name] = divide(c.Get(weightedKey(def.Name)), c.Get(weightKey(def.Name)), 1, false)
			case KindRatio:
				numerator := raw.Get(def.Numerator)
				if def.NullWhenNumeratorZero && numerator.Valid && numerator.Float64 == 0 {
					raw[def.Name] = Null
					continue
				}
				raw[def.Name] = divide(numerator, raw.Get(def.Denominator), def.Scale, def.ZeroWhenEmpty)
			}
		}
	}

	out := make(Metrics, len(raw))
	for _, def := range definitions {
		out[def.Name] = raw[def.Name].Round(def.Places)
	}
	return out
}

func evalFormula(formula Formula, m Metrics) Value {
	switch formula {
	case FormulaOrganicSales:
		total, ads := m.Get("total_sales"), m.Get("ad_sales")
		if !total.Valid || !ads.Valid {
			return Null
		}
		diff, _ := decimal.NewFromFloat(total.Float64).Sub(decimal.NewFromFloat(ads.Float64)).Float64()
		return Some(diff)
	}
	return Null
}

func divide(numerator, denominator Value, scale float64, zeroWhenEmpty bool) Value {
	if !denominator.Valid {
		return Null
	}
	if denominator.Float64 == 0 {
		if zeroWhenEmpty {
			return Some(0)
		}
		return Null
	}
	if !numerator.Valid {
		return Null
	}
	return Some(scale * numerator.Float64 / denominator.Float64)
}
