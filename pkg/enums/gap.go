package enums

import (
	"fmt"
	"strings"
)

// GapType describes which report is missing for a period.
type GapType string

const (
	GapTypeMissingBoth     GapType = "missing_both"
	GapTypeMissingBusiness GapType = "missing_business"
	GapTypeMissingAds      GapType = "missing_ads"
)

// String implements fmt.Stringer.
func (g GapType) String() string {
	return string(g)
}

// GapSource selects which report's periods count as present.
type GapSource string

const (
	GapSourceBusiness GapSource = "business"
	GapSourceAds      GapSource = "ads"
	GapSourceCombined GapSource = "combined"
)

var validGapSources = []GapSource{
	GapSourceBusiness,
	GapSourceAds,
	GapSourceCombined,
}

// String implements fmt.Stringer.
func (g GapSource) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GapSource.
func (g GapSource) IsValid() bool {
	for _, candidate := range validGapSources {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGapSource converts raw input into a GapSource; empty input means business.
func ParseGapSource(value string) (GapSource, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return GapSourceBusiness, nil
	}
	for _, candidate := range validGapSources {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gap source %q", value)
}

// GapSources lists every supported GapSource.
func GapSources() []GapSource {
	return append([]GapSource(nil), validGapSources...)
}
