package analytics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	"github.com/angelmondragon/sellerpulse-backend/internal/engine"
	"github.com/angelmondragon/sellerpulse-backend/internal/pivot"
	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

var num = snapshot.Num

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func weekly(asin, start string, sales, sessions, units float64) snapshot.BusinessRow {
	return snapshot.BusinessRow{
		SellerID:            "s1",
		SellerName:          "Acme",
		ChildASIN:           asin,
		PeriodStart:         date(start),
		Granularity:         enums.GranularityWeekly,
		OrderedProductSales: num(sales),
		Sessions:            num(sessions),
		UnitsOrdered:        num(units),
	}
}

func monthly(asin, start string, sales, sessions, units float64) snapshot.BusinessRow {
	row := weekly(asin, start, sales, sessions, units)
	row.Granularity = enums.GranularityMonthly
	return row
}

func ad(asin, day string, spend, sales float64) snapshot.AdsRow {
	return snapshot.AdsRow{
		SellerID:    "s1",
		SellerName:  "Acme",
		ChildASIN:   asin,
		RecordDate:  date(day),
		Impressions: num(1000),
		Clicks:      num(10),
		Spend:       num(spend),
		Sales:       num(sales),
	}
}

func fixture() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Mapping: []snapshot.IdentityRow{
			{SellerID: "s1", SellerName: "Acme", ChildASIN: "B001", ParentASIN: "P1", NormalizedName: "Trail Bottle", DisplayName: "Trail Bottle 750ml"},
			{SellerID: "s1", SellerName: "Acme", ChildASIN: "B002", ParentASIN: "P1", NormalizedName: "Trail Bottle", DisplayName: "Trail Bottle 750ml"},
			{SellerID: "s1", SellerName: "Acme", ChildASIN: "B003", ParentASIN: "P2", NormalizedName: "Camp Mug", DisplayName: "Camp Mug"},
		},
		Business: []snapshot.BusinessRow{
			weekly("B001", "2025-01-05", 500, 200, 50),
			weekly("B002", "2025-01-05", 100, 50, 10),
			weekly("B003", "2025-01-05", 80, 40, 4),
			weekly("B001", "2025-01-12", 300, 100, 30),
			weekly("B003", "2025-01-12", 40, 20, 2),
			monthly("B001", "2025-01-01", 2000, 800, 200),
			monthly("B003", "2025-01-01", 400, 100, 20),
			monthly("B001", "2024-01-01", 1000, 400, 100),
		},
		Ads: []snapshot.AdsRow{
			ad("B001", "2025-01-06", 50, 150),
			ad("B002", "2025-01-08", 10, 0),
			ad("B003", "2025-01-20", 5, 25),
		},
	}
}

type fakeLoader struct {
	mu          sync.Mutex
	snap        *snapshot.Snapshot
	err         error
	sellers     []snapshot.SellerRow
	loaded      []snapshot.Key
	refreshed   []snapshot.Key
	invalidated []string
}

func (f *fakeLoader) Load(_ context.Context, key snapshot.Key) (*snapshot.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, key)
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *fakeLoader) Refresh(_ context.Context, key snapshot.Key) (*snapshot.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, key)
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *fakeLoader) Invalidate(_ context.Context, seller string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, seller)
	return 2, nil
}

func (f *fakeLoader) Sellers(context.Context) ([]snapshot.SellerRow, error) {
	return f.sellers, f.err
}

func newService(t *testing.T, loader *fakeLoader) Service {
	t.Helper()
	eng, err := engine.New(engine.DefaultOptions())
	require.NoError(t, err)
	svc, err := NewService(loader, eng, nil, nil)
	require.NoError(t, err)
	return svc
}

func january() types.MetricsRequest {
	return types.MetricsRequest{
		Seller:    "Acme",
		StartDate: date("2025-01-05"),
		EndDate:   date("2025-01-25"),
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	eng, err := engine.New(engine.DefaultOptions())
	require.NoError(t, err)

	_, err = NewService(nil, eng, nil, nil)
	assert.Error(t, err)
	_, err = NewService(&fakeLoader{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestMetricsDefaultsToAccountWeekly(t *testing.T) {
	loader := &fakeLoader{snap: fixture()}
	svc := newService(t, loader)

	table, err := svc.Metrics(context.Background(), january())
	require.NoError(t, err)
	assert.Equal(t, enums.AggregationLevelAccount, table.Level)
	assert.Equal(t, enums.GranularityWeekly, table.Granularity)

	var first *engine.Row
	for i := range table.Rows {
		if table.Rows[i].Period == date("2025-01-05") {
			first = &table.Rows[i]
		}
	}
	require.NotNil(t, first)
	assert.Equal(t, "s1", first.EntityKey)
	assert.InDelta(t, 680, first.Value("total_sales").Float64, 1e-9)
	assert.InDelta(t, 60, first.Value("ad_spend").Float64, 1e-9)

	require.Len(t, loader.loaded, 1)
	assert.Equal(t, "Acme", loader.loaded[0].Seller)
	assert.True(t, loader.loaded[0].Start.IsZero())
}

func TestMetricsMergesSpecificWeeks(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})

	req := types.MetricsRequest{
		Seller:         "Acme",
		Level:          "PARENT",
		SpecificWeeks:  []civil.Date{date("2025-01-12")},
		SpecificMonths: []civil.Date{date("2025-01-01")},
	}
	table, err := svc.Metrics(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, table.Rows)
	for _, row := range table.Rows {
		assert.Equal(t, date("2025-01-12"), row.Period)
	}
}

func TestMetricsUnknownGranularity(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})

	req := january()
	req.Granularity = "daily"
	_, err := svc.Metrics(context.Background(), req)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
}

func TestCumulativeMetrics(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})

	table, err := svc.CumulativeMetrics(context.Background(), january())
	require.NoError(t, err)
	assert.True(t, table.Cumulative)
	require.Len(t, table.Rows, 1)
	assert.InDelta(t, 1020, table.Rows[0].Value("total_sales").Float64, 1e-9)
}

func TestPivotDefaultsToParentWithTotals(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})

	p, err := svc.Pivot(context.Background(), types.PivotRequest{
		MetricsRequest: january(),
		Preset:         "sales_overview",
	})
	require.NoError(t, err)
	require.Len(t, p.Rows, 3)

	labels := make([]string, 0, len(p.Rows))
	var totals int
	for _, row := range p.Rows {
		labels = append(labels, row.EntityLabel)
		if row.Total {
			totals++
		}
	}
	assert.Equal(t, 1, totals)
	assert.Contains(t, labels, "Camp Mug")
	assert.Contains(t, labels, "Trail Bottle 750ml")
	assert.Contains(t, labels, pivot.TotalKey)
}

func TestPivotWithoutTotals(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})
	off := false

	p, err := svc.Pivot(context.Background(), types.PivotRequest{
		MetricsRequest: january(),
		IncludeTotals:  &off,
	})
	require.NoError(t, err)
	for _, row := range p.Rows {
		assert.False(t, row.Total)
	}
}

func TestPivotRejectsUnknownPeriodOrder(t *testing.T) {
	loader := &fakeLoader{snap: fixture()}
	svc := newService(t, loader)

	_, err := svc.Pivot(context.Background(), types.PivotRequest{
		MetricsRequest: january(),
		PeriodOrder:    "sideways",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
	assert.Empty(t, loader.loaded)
}

func TestExportCSV(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC) }

	export, err := svc.ExportCSV(context.Background(), types.ExportRequest{
		PivotRequest: types.PivotRequest{MetricsRequest: january()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme_parent_weekly_20250203.csv", export.Filename)
	assert.Equal(t, 3, export.Rows)
	assert.NotEmpty(t, export.Data)
	assert.Contains(t, string(export.Data), "Camp Mug")
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2025, 2, 3, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, "all_sellers_account_monthly_20250203.csv", exportFilename("", "", "account", "monthly", now))
	assert.Equal(t, "Acme_Goods_child_weekly_20250203.csv", exportFilename("", "Acme Goods", "child", "weekly", now))
	assert.Equal(t, "q1_report.csv", exportFilename("q1 report.csv", "Acme", "parent", "weekly", now))
	assert.Equal(t, "etc_passwd.csv", exportFilename("../etc/passwd", "Acme", "parent", "weekly", now))
	assert.Equal(t, "export.csv", exportFilename("///", "Acme", "parent", "weekly", now))
}

func TestYoY(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})

	table, err := svc.YoY(context.Background(), types.YoYRequest{Seller: "Acme", Month: date("2025-01-01")})
	require.NoError(t, err)
	assert.Equal(t, date("2024-01-01"), table.PriorYearMonth)
	require.Len(t, table.Rows, 1)
	assert.InDelta(t, 2400, table.Rows[0].Value("total_sales_current").Float64, 1e-9)
	assert.InDelta(t, 1000, table.Rows[0].Value("total_sales_prior").Float64, 1e-9)
}

func TestYoYRequiresMonth(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})

	_, err := svc.YoY(context.Background(), types.YoYRequest{Seller: "Acme"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGapsDefaults(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})

	resp, err := svc.Gaps(context.Background(), types.GapsRequest{Seller: "Acme", EndDate: date("2025-01-19")})
	require.NoError(t, err)
	assert.Equal(t, enums.GranularityWeekly, resp.Granularity)
	assert.Equal(t, enums.GapSourceBusiness, resp.Source)
	require.Equal(t, 1, resp.Count)
	gap := resp.Gaps[0]
	assert.Equal(t, date("2025-01-19"), gap.MissingPeriodStart)
	assert.Equal(t, enums.GapTypeMissingBusiness, gap.GapType)
	assert.True(t, gap.HasAdsData)
}

func TestGapsEmptySnapshot(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: &snapshot.Snapshot{}})

	resp, err := svc.Gaps(context.Background(), types.GapsRequest{Seller: "Acme"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Gaps)
	assert.Zero(t, resp.Count)
}

func TestCoverage(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})

	resp, err := svc.Coverage(context.Background(), "Acme")
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "s1", resp.Coverage[0].SellerID)
	require.NotNil(t, resp.Coverage[0].AdsMaxDate)
	assert.Equal(t, date("2025-01-20"), *resp.Coverage[0].AdsMaxDate)
}

func TestHierarchy(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: fixture()})

	resp, err := svc.Hierarchy(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 3, resp.ASINCount)
}

func TestHierarchyEmptyMappingIsNotFound(t *testing.T) {
	svc := newService(t, &fakeLoader{snap: &snapshot.Snapshot{}})

	_, err := svc.Hierarchy(context.Background(), "Nobody")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSellers(t *testing.T) {
	svc := newService(t, &fakeLoader{sellers: []snapshot.SellerRow{
		{SellerID: "s2", SellerName: "Zed Supply", AsinCount: 4},
		{SellerID: "s1", SellerName: "Acme", AsinCount: 3},
	}})

	resp, err := svc.Sellers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "Acme", resp.Sellers[0].SellerName)
	assert.Equal(t, 3, resp.Sellers[0].AsinCount)
}

func TestFilterOptions(t *testing.T) {
	svc := newService(t, &fakeLoader{})

	opts, err := svc.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, opts.Metrics)
	assert.Contains(t, opts.MetricPresets, enums.MetricPresetAdvertising)
	assert.Len(t, opts.AggregationLevels, 4)
	assert.Equal(t, enums.PeriodOrders(), opts.PeriodOrders)

	var acos *types.MetricInfo
	for i := range opts.Metrics {
		if opts.Metrics[i].Name == "acos_pct" {
			acos = &opts.Metrics[i]
		}
	}
	require.NotNil(t, acos)
	assert.False(t, acos.Additive)
}

func TestRefresh(t *testing.T) {
	loader := &fakeLoader{snap: fixture()}
	svc := newService(t, loader)

	result, err := svc.Refresh(context.Background(), "Acme", false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Invalidated)
	assert.False(t, result.Warmed)
	assert.Empty(t, loader.refreshed)

	result, err = svc.Refresh(context.Background(), "Acme", true)
	require.NoError(t, err)
	assert.True(t, result.Warmed)
	assert.Equal(t, []string{"Acme", "Acme"}, loader.invalidated)
	require.Len(t, loader.refreshed, 1)
	assert.Equal(t, "Acme", loader.refreshed[0].Seller)
}

func TestLoaderErrorsPropagate(t *testing.T) {
	cause := pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("metabase down"), "fetch business_report")
	svc := newService(t, &fakeLoader{err: cause})

	_, err := svc.Metrics(context.Background(), january())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.True(t, strings.Contains(err.Error(), "fetch business_report"))

	_, err = svc.Sellers(context.Background())
	assert.ErrorIs(t, err, cause)
}
