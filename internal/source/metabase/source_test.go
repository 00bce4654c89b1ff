package metabase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	mb "github.com/angelmondragon/sellerpulse-backend/pkg/metabase"
)

type call struct {
	card   int
	params []mb.Parameter
}

type fakeQuerier struct {
	rows  map[int][]mb.Row
	err   error
	calls []call
}

func (f *fakeQuerier) QueryCard(_ context.Context, cardID int, params []mb.Parameter) ([]mb.Row, error) {
	f.calls = append(f.calls, call{card: cardID, params: params})
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[cardID], nil
}

var cards = Cards{Mapping: 666, Business: 681, Ads: 665}

func TestFetchBusinessParsesLooseNumbers(t *testing.T) {
	q := &fakeQuerier{rows: map[int][]mb.Row{
		681: {
			{"child_asin": "B001", "seller_id": "s1", "period_start_date": "2025-01-05T00:00:00Z", "period_granularity": "weekly",
				"ordered_product_sales": "1,234.50", "sessions_total": json.Number("42"), "units_ordered": nil, "buy_box_percentage": "97%"},
			{"child_asin": "", "period_start_date": "2025-01-05"},
			{"child_asin": "B002", "period_start_date": "not a date"},
		},
	}}
	src := New(q, cards)

	key := snapshot.Key{Seller: "Acme", Granularity: enums.GranularityWeekly, Start: civil.Date{Year: 2025, Month: time.January, Day: 1}}
	rows, err := src.FetchBusiness(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, civil.Date{Year: 2025, Month: time.January, Day: 5}, row.PeriodStart)
	assert.Equal(t, enums.GranularityWeekly, row.Granularity)
	assert.Equal(t, 1234.5, *row.OrderedProductSales)
	assert.Equal(t, 42.0, *row.Sessions)
	assert.Equal(t, 97.0, *row.BuyBoxPercentage)
	assert.Nil(t, row.UnitsOrdered)
	assert.Nil(t, row.PageViews)

	require.Len(t, q.calls, 1)
	params := q.calls[0].params
	require.Len(t, params, 3)
	assert.Equal(t, "string/=", params[0].Type)
	assert.Equal(t, "weekly", params[1].Value)
	assert.Equal(t, "2025-01-01", params[2].Value)
}

func TestFetchBusinessOpenGranularityQueriesBoth(t *testing.T) {
	q := &fakeQuerier{rows: map[int][]mb.Row{681: {{"child_asin": "B001", "period_start_date": "2025-01-01"}}}}
	rows, err := New(q, cards).FetchBusiness(context.Background(), snapshot.Key{})
	require.NoError(t, err)
	assert.Len(t, q.calls, 2)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.GranularityWeekly, rows[0].Granularity)
	assert.Equal(t, enums.GranularityMonthly, rows[1].Granularity)
	assert.Len(t, q.calls[0].params, 1, "no seller or date filters on an open key")
}

func TestFetchMappingAndAds(t *testing.T) {
	q := &fakeQuerier{rows: map[int][]mb.Row{
		666: {
			{"child_asin": "B001", "seller_name": "Acme", "adjusted_parent_asin": "P1", "normalized_name": "trail bottle", "adjusted_normalized_name": "Trail Bottle 750ml", "adjusted_variant_name": "Blue"},
			{"child_asin": " "},
		},
		665: {
			{"child_asin": "B001", "record_date": "2025-01-06", "campaign_name": "Brand", "spend": 20.0, "seven_day_total_sales": json.Number("100"), "clicks": "12"},
		},
	}}
	src := New(q, cards)

	mapping, err := src.FetchMapping(context.Background(), snapshot.Key{})
	require.NoError(t, err)
	require.Len(t, mapping, 1)
	assert.Equal(t, "P1", mapping[0].ParentASIN)
	assert.Equal(t, "trail bottle", mapping[0].NormalizedName)
	assert.Equal(t, "Trail Bottle 750ml", mapping[0].DisplayName)
	assert.Equal(t, "Blue", mapping[0].VariantName)

	ads, err := src.FetchAds(context.Background(), snapshot.Key{Seller: "Acme"})
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, 20.0, *ads[0].Spend)
	assert.Equal(t, 100.0, *ads[0].Sales)
	assert.Equal(t, 12.0, *ads[0].Clicks)
	assert.Nil(t, ads[0].Impressions)
}

func TestFetchSellersFallsBackToMapping(t *testing.T) {
	q := &fakeQuerier{rows: map[int][]mb.Row{666: {
		{"child_asin": "B001", "seller_id": "s2", "seller_name": "Birch"},
		{"child_asin": "B002", "seller_id": "s1", "seller_name": "Acme"},
		{"child_asin": "B003", "seller_id": "s1", "seller_name": "Acme"},
		{"child_asin": "B003", "seller_id": "s1", "seller_name": "Acme"},
	}}}
	sellers, err := New(q, cards).FetchSellers(context.Background())
	require.NoError(t, err)
	require.Len(t, sellers, 2)
	assert.Equal(t, "Acme", sellers[0].SellerName)
	assert.Equal(t, 2, sellers[0].AsinCount)
	assert.Equal(t, 1, sellers[1].AsinCount)

	withCard := Cards{Mapping: 666, Sellers: 700}
	q.rows[700] = []mb.Row{{"seller_id": "s1", "seller_name": "Acme", "asin_count": "14"}}
	sellers, err = New(q, withCard).FetchSellers(context.Background())
	require.NoError(t, err)
	require.Len(t, sellers, 1)
	assert.Equal(t, 14, sellers[0].AsinCount)
}

func TestFetchPropagatesClientErrors(t *testing.T) {
	q := &fakeQuerier{err: errors.New("status 502")}
	_, err := New(q, cards).FetchAds(context.Background(), snapshot.Key{})
	assert.Error(t, err)
}
