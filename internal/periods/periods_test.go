package periods

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestWeekStart(t *testing.T) {
	// 2025-01-08 is a Wednesday.
	assert.Equal(t, date(2025, 1, 5), WeekStart(date(2025, 1, 8), time.Sunday))
	assert.Equal(t, date(2025, 1, 6), WeekStart(date(2025, 1, 8), time.Monday))
	assert.Equal(t, date(2025, 1, 5), WeekStart(date(2025, 1, 5), time.Sunday))
	assert.Equal(t, date(2024, 12, 29), WeekStart(date(2025, 1, 4), time.Sunday))
}

func TestBucketMonthly(t *testing.T) {
	assert.Equal(t, date(2025, 2, 1), Bucket(date(2025, 2, 17), enums.GranularityMonthly, time.Sunday))
}

func TestNextPrevEnd(t *testing.T) {
	assert.Equal(t, date(2025, 1, 13), Next(date(2025, 1, 6), enums.GranularityWeekly))
	assert.Equal(t, date(2024, 12, 30), Prev(date(2025, 1, 6), enums.GranularityWeekly))
	assert.Equal(t, date(2025, 1, 12), End(date(2025, 1, 6), enums.GranularityWeekly))

	assert.Equal(t, date(2025, 1, 1), Next(date(2024, 12, 1), enums.GranularityMonthly))
	assert.Equal(t, date(2024, 12, 1), Prev(date(2025, 1, 1), enums.GranularityMonthly))
	assert.Equal(t, date(2024, 2, 29), End(date(2024, 2, 1), enums.GranularityMonthly))
	assert.Equal(t, date(2024, 3, 1), PriorYear(date(2025, 3, 1)))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Jan_04", Label(date(2025, 1, 4), enums.GranularityWeekly))
	assert.Equal(t, "Jan_2025", Label(date(2025, 1, 1), enums.GranularityMonthly))
}

func TestSequence(t *testing.T) {
	seq := Sequence(date(2025, 1, 6), date(2025, 1, 20), enums.GranularityWeekly)
	require.Len(t, seq, 3)
	assert.Equal(t, date(2025, 1, 13), seq[1])

	months := Sequence(date(2024, 11, 1), date(2025, 2, 1), enums.GranularityMonthly)
	assert.Len(t, months, 4)

	assert.Nil(t, Sequence(date(2025, 2, 1), date(2025, 1, 1), enums.GranularityMonthly))
}

func TestRangeContains(t *testing.T) {
	r := Range{Start: date(2025, 1, 1), End: date(2025, 1, 31)}
	assert.True(t, r.Contains(date(2025, 1, 1)))
	assert.True(t, r.Contains(date(2025, 1, 31)))
	assert.False(t, r.Contains(date(2025, 2, 1)))
	assert.True(t, Range{}.Contains(date(1999, 1, 1)))
	assert.True(t, Range{}.IsZero())
}

func TestSetSorted(t *testing.T) {
	s := NewSet(date(2025, 1, 20), date(2025, 1, 6))
	assert.True(t, s.Has(date(2025, 1, 6)))
	assert.Equal(t, []civil.Date{date(2025, 1, 6), date(2025, 1, 20)}, s.Sorted())
}
