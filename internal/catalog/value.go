package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Value is a nullable metric value. The zero value is null.
type Value struct {
	Float64 float64
	Valid   bool
}

// Null is the absent value.
var Null = Value{}

// Some wraps v; NaN and infinities collapse to null.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Null
	}
	return Value{Float64: v, Valid: true}
}

// FromPtr converts an optional upstream number.
func FromPtr(v *float64) Value {
	if v == nil {
		return Null
	}
	return Some(*v)
}

// Ptr returns nil for null.
func (v Value) Ptr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// Or returns fallback when v is null.
func (v Value) Or(fallback float64) float64 {
	if !v.Valid {
		return fallback
	}
	return v.Float64
}

// Round rounds half away from zero; negative places leave v untouched.
func (v Value) Round(places int32) Value {
	if !v.Valid || places < 0 {
		return v
	}
	rounded, _ := decimal.NewFromFloat(v.Float64).Round(places).Float64()
	return Some(rounded)
}

// String renders null as the empty string.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float64)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Null
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Change returns the absolute and percent change from prev to cur. Both are
// null when either side is null; the percent is also null when prev is zero.
func Change(cur, prev Value) (Value, Value) {
	if !cur.Valid || !prev.Valid {
		return Null, Null
	}
	diff := decimal.NewFromFloat(cur.Float64).Sub(decimal.NewFromFloat(prev.Float64))
	change, _ := diff.Float64()
	if prev.Float64 == 0 {
		return Some(change), Null
	}
	pct, _ := diff.Div(decimal.NewFromFloat(prev.Float64)).Mul(decimal.NewFromInt(100)).Round(changePctPlaces).Float64()
	return Some(change), Some(pct)
}

const changePctPlaces = 1
