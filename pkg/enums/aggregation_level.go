package enums

import (
	"fmt"
	"strings"
)

// AggregationLevel selects the entity rows are grouped by.
type AggregationLevel string

const (
	AggregationLevelChild   AggregationLevel = "child"
	AggregationLevelParent  AggregationLevel = "parent"
	AggregationLevelAccount AggregationLevel = "account"
	AggregationLevelCustom  AggregationLevel = "custom"
)

var validAggregationLevels = []AggregationLevel{
	AggregationLevelChild,
	AggregationLevelParent,
	AggregationLevelAccount,
	AggregationLevelCustom,
}

// String implements fmt.Stringer.
func (a AggregationLevel) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AggregationLevel.
func (a AggregationLevel) IsValid() bool {
	for _, candidate := range validAggregationLevels {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAggregationLevel converts raw input into an AggregationLevel.
func ParseAggregationLevel(value string) (AggregationLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validAggregationLevels {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregation level %q", value)
}

// AggregationLevels lists every supported level.
func AggregationLevels() []AggregationLevel {
	return append([]AggregationLevel(nil), validAggregationLevels...)
}
