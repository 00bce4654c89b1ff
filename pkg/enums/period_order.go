package enums

import (
	"fmt"
	"strings"
)

// PeriodOrder sets the column order of periods in a pivot.
type PeriodOrder string

const (
	PeriodOrderRecentFirst PeriodOrder = "recent_first"
	PeriodOrderOldestFirst PeriodOrder = "oldest_first"
)

// String implements fmt.Stringer.
func (p PeriodOrder) String() string {
	return string(p)
}

// ParsePeriodOrder converts raw input into a PeriodOrder; empty input means recent_first.
func ParsePeriodOrder(value string) (PeriodOrder, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(PeriodOrderRecentFirst):
		return PeriodOrderRecentFirst, nil
	case string(PeriodOrderOldestFirst):
		return PeriodOrderOldestFirst, nil
	}
	return "", fmt.Errorf("invalid period order %q", value)
}

// PeriodOrders lists every supported PeriodOrder.
func PeriodOrders() []PeriodOrder {
	return []PeriodOrder{PeriodOrderRecentFirst, PeriodOrderOldestFirst}
}
