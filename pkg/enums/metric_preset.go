package enums

import (
	"fmt"
	"strings"
)

// MetricPreset names a fixed subset of metrics shown together.
type MetricPreset string

const (
	MetricPresetSalesOverview MetricPreset = "sales_overview"
	MetricPresetAdvertising   MetricPreset = "advertising"
	MetricPresetOrganicVsPaid MetricPreset = "organic_vs_paid"
	MetricPresetTraffic       MetricPreset = "traffic"
	MetricPresetConversion    MetricPreset = "conversion"
	MetricPresetAll           MetricPreset = "all"
)

var validMetricPresets = []MetricPreset{
	MetricPresetSalesOverview,
	MetricPresetAdvertising,
	MetricPresetOrganicVsPaid,
	MetricPresetTraffic,
	MetricPresetConversion,
	MetricPresetAll,
}

// String implements fmt.Stringer.
func (m MetricPreset) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MetricPreset.
func (m MetricPreset) IsValid() bool {
	for _, candidate := range validMetricPresets {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMetricPreset converts raw input into a MetricPreset.
func ParseMetricPreset(value string) (MetricPreset, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validMetricPresets {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid metric preset %q", value)
}

// MetricPresets lists every supported preset.
func MetricPresets() []MetricPreset {
	return append([]MetricPreset(nil), validMetricPresets...)
}
