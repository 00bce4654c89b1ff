// Package metabase reads the report tables from Metabase saved questions.
package metabase

import (
	"context"
	"sort"

	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	mb "github.com/angelmondragon/sellerpulse-backend/pkg/metabase"
)

// Template tags the saved questions accept.
const (
	tagSeller      = "seller_name"
	tagGranularity = "granularity"
	tagStartDate   = "start_date"
	tagEndDate     = "end_date"
)

// Cards holds the saved question ids of each report. Sellers may be zero,
// in which case the seller list is derived from the ASIN mapping.
type Cards struct {
	Mapping  int
	Business int
	Ads      int
	Sellers  int
}

type querier interface {
	QueryCard(ctx context.Context, cardID int, params []mb.Parameter) ([]mb.Row, error)
}

// Source implements snapshot.Source over a Metabase client.
type Source struct {
	client querier
	cards  Cards
}

func New(client querier, cards Cards) *Source {
	return &Source{client: client, cards: cards}
}

var _ snapshot.Source = (*Source)(nil)

func (s *Source) FetchMapping(ctx context.Context, key snapshot.Key) ([]snapshot.IdentityRow, error) {
	rows, err := s.client.QueryCard(ctx, s.cards.Mapping, sellerParams(key.Seller))
	if err != nil {
		return nil, err
	}
	out := make([]snapshot.IdentityRow, 0, len(rows))
	for _, row := range rows {
		asin := text(row, "child_asin")
		if asin == "" {
			continue
		}
		out = append(out, snapshot.IdentityRow{
			SellerID:       text(row, "seller_id"),
			SellerName:     text(row, "seller_name"),
			Marketplace:    text(row, "marketplace"),
			ChildASIN:      asin,
			ParentASIN:     text(row, "adjusted_parent_asin", "parent_asin"),
			NormalizedName: text(row, "normalized_name", "adjusted_normalized_name"),
			DisplayName:    text(row, "adjusted_normalized_name", "normalized_name"),
			VariantName:    text(row, "adjusted_variant_name", "variant_name"),
			Title:          text(row, "title"),
		})
	}
	return out, nil
}

// FetchBusiness queries each requested granularity; an open granularity
// fetches weekly and monthly rows.
func (s *Source) FetchBusiness(ctx context.Context, key snapshot.Key) ([]snapshot.BusinessRow, error) {
	grans := enums.Granularities()
	if key.Granularity != "" {
		grans = []enums.Granularity{key.Granularity}
	}
	var out []snapshot.BusinessRow
	for _, gran := range grans {
		params := append(sellerParams(key.Seller), mb.Category(tagGranularity, gran.String()))
		params = append(params, dateParams(key)...)
		rows, err := s.client.QueryCard(ctx, s.cards.Business, params)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if parsed, ok := businessRow(row, gran); ok {
				out = append(out, parsed)
			}
		}
	}
	return out, nil
}

func (s *Source) FetchAds(ctx context.Context, key snapshot.Key) ([]snapshot.AdsRow, error) {
	params := append(sellerParams(key.Seller), dateParams(key)...)
	rows, err := s.client.QueryCard(ctx, s.cards.Ads, params)
	if err != nil {
		return nil, err
	}
	out := make([]snapshot.AdsRow, 0, len(rows))
	for _, row := range rows {
		asin := text(row, "child_asin", "advertised_asin")
		recordDate, ok := date(row, "record_date")
		if asin == "" || !ok {
			continue
		}
		out = append(out, snapshot.AdsRow{
			SellerID:     text(row, "seller_id"),
			SellerName:   text(row, "seller_name"),
			ChildASIN:    asin,
			RecordDate:   recordDate,
			CampaignName: text(row, "campaign_name"),
			Impressions:  number(row, "impressions"),
			Clicks:       number(row, "clicks"),
			Spend:        number(row, "spend"),
			Sales:        number(row, "seven_day_total_sales"),
			Orders:       number(row, "seven_day_total_orders"),
			Units:        number(row, "seven_day_total_units"),
		})
	}
	return out, nil
}

// FetchSellers reads the sellers card, or summarises the mapping card when
// no sellers card is configured.
func (s *Source) FetchSellers(ctx context.Context) ([]snapshot.SellerRow, error) {
	if s.cards.Sellers <= 0 {
		return s.sellersFromMapping(ctx)
	}
	rows, err := s.client.QueryCard(ctx, s.cards.Sellers, nil)
	if err != nil {
		return nil, err
	}
	out := make([]snapshot.SellerRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, snapshot.SellerRow{
			SellerID:       text(row, "seller_id"),
			SellerName:     text(row, "seller_name"),
			AmazonSellerID: text(row, "amazon_seller_id"),
			Marketplace:    text(row, "marketplace"),
			AsinCount:      integer(row, "asin_count"),
		})
	}
	return out, nil
}

func (s *Source) sellersFromMapping(ctx context.Context) ([]snapshot.SellerRow, error) {
	mapping, err := s.FetchMapping(ctx, snapshot.Key{})
	if err != nil {
		return nil, err
	}
	type acc struct {
		row   snapshot.SellerRow
		asins map[string]struct{}
	}
	bySeller := map[string]*acc{}
	for _, m := range mapping {
		id := m.SellerID
		if id == "" {
			id = m.SellerName
		}
		a, ok := bySeller[id]
		if !ok {
			a = &acc{
				row:   snapshot.SellerRow{SellerID: m.SellerID, SellerName: m.SellerName, Marketplace: m.Marketplace},
				asins: map[string]struct{}{},
			}
			bySeller[id] = a
		}
		a.asins[m.ChildASIN] = struct{}{}
	}
	out := make([]snapshot.SellerRow, 0, len(bySeller))
	for _, a := range bySeller {
		a.row.AsinCount = len(a.asins)
		out = append(out, a.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SellerName < out[j].SellerName })
	return out, nil
}

func businessRow(row mb.Row, requested enums.Granularity) (snapshot.BusinessRow, bool) {
	asin := text(row, "child_asin")
	start, ok := date(row, "period_start_date")
	if asin == "" || !ok {
		return snapshot.BusinessRow{}, false
	}
	gran := requested
	if parsed, err := enums.ParseGranularity(text(row, "period_granularity")); err == nil {
		gran = parsed
	}
	return snapshot.BusinessRow{
		SellerID:            text(row, "seller_id"),
		SellerName:          text(row, "seller_name"),
		ChildASIN:           asin,
		PeriodStart:         start,
		Granularity:         gran,
		OrderedProductSales: number(row, "ordered_product_sales"),
		Sessions:            number(row, "sessions_total"),
		UnitsOrdered:        number(row, "units_ordered"),
		PageViews:           number(row, "page_views_total"),
		UnitsRefunded:       number(row, "units_refunded"),
		BuyBoxPercentage:    number(row, "buy_box_percentage"),
	}, true
}

func sellerParams(seller string) []mb.Parameter {
	if seller == "" {
		return nil
	}
	return []mb.Parameter{mb.FieldFilter(tagSeller, seller)}
}

func dateParams(key snapshot.Key) []mb.Parameter {
	var params []mb.Parameter
	if !key.Start.IsZero() {
		params = append(params, mb.Date(tagStartDate, key.Start))
	}
	if !key.End.IsZero() {
		params = append(params, mb.Date(tagEndDate, key.End))
	}
	return params
}
