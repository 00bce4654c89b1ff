package enums

import (
	"fmt"
	"strings"
)

// Granularity is the time-bucket size of a report period.
type Granularity string

const (
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

var validGranularities = []Granularity{
	GranularityWeekly,
	GranularityMonthly,
}

// String implements fmt.Stringer.
func (g Granularity) String() string {
	return string(g)
}

// IsValid reports whether the value is a known Granularity.
func (g Granularity) IsValid() bool {
	for _, candidate := range validGranularities {
		if candidate == g {
			return true
		}
	}
	return false
}

// ComparisonPrefix is the column prefix used for period-over-period comparisons.
func (g Granularity) ComparisonPrefix() string {
	if g == GranularityMonthly {
		return "mom"
	}
	return "wow"
}

// ParseGranularity converts raw input into a Granularity.
func ParseGranularity(value string) (Granularity, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validGranularities {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid granularity %q", value)
}

// Granularities lists every supported granularity.
func Granularities() []Granularity {
	return append([]Granularity(nil), validGranularities...)
}
