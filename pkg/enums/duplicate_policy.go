package enums

import (
	"fmt"
	"strings"
)

// DuplicatePolicy controls how repeated fact rows for the same key are treated.
type DuplicatePolicy string

const (
	// DuplicatePolicySum adds every row that shares a key.
	DuplicatePolicySum DuplicatePolicy = "sum"
	// DuplicatePolicyDedupe keeps the first row seen for a key.
	DuplicatePolicyDedupe DuplicatePolicy = "dedupe"
)

var validDuplicatePolicies = []DuplicatePolicy{
	DuplicatePolicySum,
	DuplicatePolicyDedupe,
}

// String implements fmt.Stringer.
func (d DuplicatePolicy) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DuplicatePolicy.
func (d DuplicatePolicy) IsValid() bool {
	for _, candidate := range validDuplicatePolicies {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDuplicatePolicy converts raw input into a DuplicatePolicy.
func ParseDuplicatePolicy(value string) (DuplicatePolicy, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDuplicatePolicies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid duplicate policy %q", value)
}
