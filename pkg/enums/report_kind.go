package enums

import (
	"fmt"
	"strings"
)

// ReportKind identifies one of the upstream snapshot tables.
type ReportKind string

const (
	ReportKindAsinMapping ReportKind = "asin_mapping"
	ReportKindBusiness    ReportKind = "business_report"
	ReportKindAds         ReportKind = "ads_report"
)

var validReportKinds = []ReportKind{
	ReportKindAsinMapping,
	ReportKindBusiness,
	ReportKindAds,
}

// String implements fmt.Stringer.
func (r ReportKind) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReportKind.
func (r ReportKind) IsValid() bool {
	for _, candidate := range validReportKinds {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportKind converts raw input into a ReportKind.
func ParseReportKind(value string) (ReportKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validReportKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report kind %q", value)
}
