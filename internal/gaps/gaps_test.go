package gaps

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sellerpulse-backend/internal/periods"
	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func business(seller, asin, start string, g enums.Granularity) snapshot.BusinessRow {
	return snapshot.BusinessRow{SellerID: seller, SellerName: "Seller " + seller, ChildASIN: asin, PeriodStart: date(start), Granularity: g, Sessions: snapshot.Num(1)}
}

func ad(seller, asin, day string) snapshot.AdsRow {
	return snapshot.AdsRow{SellerID: seller, SellerName: "Seller " + seller, ChildASIN: asin, RecordDate: date(day), Spend: snapshot.Num(1)}
}

func TestDetectReportsTheMissingWeekInsideBound(t *testing.T) {
	snap := &snapshot.Snapshot{Business: []snapshot.BusinessRow{
		business("s1", "B001", "2025-01-06", enums.GranularityWeekly),
		business("s1", "B001", "2025-01-20", enums.GranularityWeekly),
	}}

	gaps, err := NewDetector(time.Sunday).Detect(snap, Query{
		Granularity: enums.GranularityWeekly,
		Range:       periods.Range{Start: date("2025-01-06"), End: date("2025-01-20")},
	})
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, date("2025-01-13"), gaps[0].MissingPeriodStart)
	assert.Equal(t, date("2025-01-19"), gaps[0].MissingPeriodEnd)
	assert.Equal(t, "s1", gaps[0].EntityKey)
	assert.Equal(t, "Seller s1", gaps[0].Entity)
	assert.False(t, gaps[0].HasBusinessData)
}

func TestDetectCombinedClassifiesGapTypes(t *testing.T) {
	snap := &snapshot.Snapshot{
		Business: []snapshot.BusinessRow{
			business("s1", "B001", "2025-01-05", enums.GranularityWeekly),
			business("s1", "B001", "2025-01-19", enums.GranularityWeekly),
		},
		Ads: []snapshot.AdsRow{
			ad("s1", "B001", "2025-01-06"),
			ad("s1", "B001", "2025-01-14"),
		},
	}
	d := NewDetector(time.Sunday)

	combined, err := d.Detect(snap, Query{Granularity: enums.GranularityWeekly, Source: enums.GapSourceCombined})
	require.NoError(t, err)
	require.Len(t, combined, 2)
	assert.Equal(t, date("2025-01-12"), combined[0].MissingPeriodStart)
	assert.Equal(t, enums.GapTypeMissingBusiness, combined[0].GapType)
	assert.True(t, combined[0].HasAdsData)
	assert.Equal(t, date("2025-01-19"), combined[1].MissingPeriodStart)
	assert.Equal(t, enums.GapTypeMissingAds, combined[1].GapType)

	adsOnly, err := d.Detect(snap, Query{Granularity: enums.GranularityWeekly, Source: enums.GapSourceAds})
	require.NoError(t, err)
	assert.Empty(t, adsOnly)

	extended, err := d.Detect(snap, Query{
		Granularity: enums.GranularityWeekly,
		Source:      enums.GapSourceAds,
		Range:       periods.Range{End: date("2025-01-26")},
	})
	require.NoError(t, err)
	require.Len(t, extended, 2)
	assert.Equal(t, enums.GapTypeMissingAds, extended[0].GapType)
	assert.Equal(t, date("2025-01-26"), extended[1].MissingPeriodStart)
	assert.Equal(t, enums.GapTypeMissingBoth, extended[1].GapType)
}

func TestDetectMonthlyPerParentOrdered(t *testing.T) {
	snap := &snapshot.Snapshot{
		Mapping: []snapshot.IdentityRow{
			{ChildASIN: "B001", NormalizedName: "Bottle"},
			{ChildASIN: "B002", NormalizedName: "Anchor"},
		},
		Business: []snapshot.BusinessRow{
			business("s1", "B001", "2024-10-01", enums.GranularityMonthly),
			business("s1", "B001", "2025-01-01", enums.GranularityMonthly),
			business("s1", "B002", "2024-11-01", enums.GranularityMonthly),
			business("s1", "B002", "2025-01-01", enums.GranularityMonthly),
			business("s1", "B002", "2024-12-02", enums.GranularityWeekly),
		},
	}

	gaps, err := NewDetector(time.Sunday).Detect(snap, Query{Granularity: enums.GranularityMonthly, Level: enums.AggregationLevelParent})
	require.NoError(t, err)
	require.Len(t, gaps, 3)
	assert.Equal(t, "Anchor", gaps[0].Entity)
	assert.Equal(t, date("2024-12-01"), gaps[0].MissingPeriodStart)
	assert.Equal(t, date("2024-12-31"), gaps[0].MissingPeriodEnd)
	assert.Equal(t, "Bottle", gaps[1].Entity)
	assert.Equal(t, date("2024-11-01"), gaps[1].MissingPeriodStart)
	assert.Equal(t, date("2024-12-01"), gaps[2].MissingPeriodStart)
}

func TestDetectValidatesQuery(t *testing.T) {
	d := NewDetector(time.Sunday)

	_, err := d.Detect(&snapshot.Snapshot{}, Query{Granularity: "daily"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))

	_, err = d.Detect(&snapshot.Snapshot{}, Query{Granularity: enums.GranularityWeekly, Level: enums.AggregationLevelCustom})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))

	gaps, err := d.Detect(nil, Query{Granularity: enums.GranularityWeekly})
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestCoverageSummary(t *testing.T) {
	snap := &snapshot.Snapshot{
		Business: []snapshot.BusinessRow{
			business("s2", "B001", "2025-01-05", enums.GranularityWeekly),
			business("s2", "B002", "2025-01-05", enums.GranularityWeekly),
			business("s2", "B001", "2025-01-01", enums.GranularityMonthly),
			business("s1", "C001", "2024-12-29", enums.GranularityWeekly),
		},
		Ads: []snapshot.AdsRow{
			ad("s2", "B001", "2025-01-03"),
			ad("s2", "B001", "2025-01-03"),
			ad("s2", "B002", "2025-01-09"),
		},
	}

	cov := CoverageSummary(snap)
	require.Len(t, cov, 2)
	assert.Equal(t, "s1", cov[0].SellerID)
	assert.Nil(t, cov[0].AdsMinDate)
	assert.Equal(t, 0, cov[0].AdsDayCount)

	s2 := cov[1]
	assert.Equal(t, date("2025-01-01"), *s2.BusinessMinDate)
	assert.Equal(t, date("2025-01-05"), *s2.BusinessMaxDate)
	assert.Equal(t, 2, s2.BusinessPeriodCount)
	assert.Equal(t, 1, s2.BusinessWeeklyPeriods)
	assert.Equal(t, 1, s2.BusinessMonthlyPeriods)
	assert.Equal(t, date("2025-01-03"), *s2.AdsMinDate)
	assert.Equal(t, date("2025-01-09"), *s2.AdsMaxDate)
	assert.Equal(t, 2, s2.AdsDayCount)
}
