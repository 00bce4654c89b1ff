package warehouse

import (
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

// statement is a parameterised query against one report table.
type statement struct {
	sql    string
	params []bigquery.QueryParameter
}

type filters struct {
	clauses []string
	params  []bigquery.QueryParameter
}

func (f *filters) add(clause, name string, value any) {
	f.clauses = append(f.clauses, clause)
	f.params = append(f.params, bigquery.QueryParameter{Name: name, Value: value})
}

func (f *filters) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(f.clauses, "\n  AND ")
}

func sellerFilter(f *filters, seller string) {
	if seller != "" {
		f.add("LOWER(seller_name) = LOWER(@seller_name)", "seller_name", seller)
	}
}

func mappingStatement(table string, key snapshot.Key) statement {
	var f filters
	sellerFilter(&f, key.Seller)
	sql := fmt.Sprintf(`SELECT seller_id, seller_name, marketplace, child_asin, parent_asin,
  normalized_name, display_name, variant_name, title
FROM %s%s
ORDER BY seller_name, child_asin`, table, f.where())
	return statement{sql: sql, params: f.params}
}

func businessStatement(table string, key snapshot.Key) statement {
	var f filters
	sellerFilter(&f, key.Seller)
	if key.Granularity != "" {
		f.add("period_granularity = @granularity", "granularity", key.Granularity.String())
	}
	if !key.Start.IsZero() {
		f.add("period_start_date >= @start_date", "start_date", key.Start)
	}
	if !key.End.IsZero() {
		f.add("period_start_date <= @end_date", "end_date", key.End)
	}
	sql := fmt.Sprintf(`SELECT seller_id, seller_name, child_asin, period_start_date, period_granularity,
  ordered_product_sales, sessions_total, units_ordered, page_views_total,
  units_refunded, buy_box_percentage
FROM %s%s`, table, f.where())
	return statement{sql: sql, params: f.params}
}

func adsStatement(table string, key snapshot.Key) statement {
	var f filters
	sellerFilter(&f, key.Seller)
	if !key.Start.IsZero() {
		f.add("record_date >= @start_date", "start_date", key.Start)
	}
	if !key.End.IsZero() {
		f.add("record_date <= @end_date", "end_date", key.End)
	}
	sql := fmt.Sprintf(`SELECT seller_id, seller_name, child_asin, record_date, campaign_name,
  impressions, clicks, spend, seven_day_total_sales, seven_day_total_orders, seven_day_total_units
FROM %s%s`, table, f.where())
	return statement{sql: sql, params: f.params}
}

func sellersStatement(table string) statement {
	sql := fmt.Sprintf(`SELECT seller_id, seller_name, ANY_VALUE(marketplace) AS marketplace,
  COUNT(DISTINCT child_asin) AS asin_count
FROM %s
GROUP BY seller_id, seller_name
ORDER BY seller_name`, table)
	return statement{sql: sql}
}

type mappingRecord struct {
	SellerID       bigquery.NullString `bigquery:"seller_id"`
	SellerName     bigquery.NullString `bigquery:"seller_name"`
	Marketplace    bigquery.NullString `bigquery:"marketplace"`
	ChildASIN      bigquery.NullString `bigquery:"child_asin"`
	ParentASIN     bigquery.NullString `bigquery:"parent_asin"`
	NormalizedName bigquery.NullString `bigquery:"normalized_name"`
	DisplayName    bigquery.NullString `bigquery:"display_name"`
	VariantName    bigquery.NullString `bigquery:"variant_name"`
	Title          bigquery.NullString `bigquery:"title"`
}

func (r mappingRecord) toRow() (snapshot.IdentityRow, bool) {
	asin := str(r.ChildASIN)
	if asin == "" {
		return snapshot.IdentityRow{}, false
	}
	return snapshot.IdentityRow{
		SellerID:       str(r.SellerID),
		SellerName:     str(r.SellerName),
		Marketplace:    str(r.Marketplace),
		ChildASIN:      asin,
		ParentASIN:     str(r.ParentASIN),
		NormalizedName: str(r.NormalizedName),
		DisplayName:    str(r.DisplayName),
		VariantName:    str(r.VariantName),
		Title:          str(r.Title),
	}, true
}

type businessRecord struct {
	SellerID            bigquery.NullString  `bigquery:"seller_id"`
	SellerName          bigquery.NullString  `bigquery:"seller_name"`
	ChildASIN           bigquery.NullString  `bigquery:"child_asin"`
	PeriodStart         bigquery.NullDate    `bigquery:"period_start_date"`
	Granularity         bigquery.NullString  `bigquery:"period_granularity"`
	OrderedProductSales bigquery.NullFloat64 `bigquery:"ordered_product_sales"`
	Sessions            bigquery.NullFloat64 `bigquery:"sessions_total"`
	UnitsOrdered        bigquery.NullFloat64 `bigquery:"units_ordered"`
	PageViews           bigquery.NullFloat64 `bigquery:"page_views_total"`
	UnitsRefunded       bigquery.NullFloat64 `bigquery:"units_refunded"`
	BuyBoxPercentage    bigquery.NullFloat64 `bigquery:"buy_box_percentage"`
}

func (r businessRecord) toRow() (snapshot.BusinessRow, bool) {
	asin := str(r.ChildASIN)
	if asin == "" || !r.PeriodStart.Valid {
		return snapshot.BusinessRow{}, false
	}
	gran, err := enums.ParseGranularity(str(r.Granularity))
	if err != nil {
		return snapshot.BusinessRow{}, false
	}
	return snapshot.BusinessRow{
		SellerID:            str(r.SellerID),
		SellerName:          str(r.SellerName),
		ChildASIN:           asin,
		PeriodStart:         r.PeriodStart.Date,
		Granularity:         gran,
		OrderedProductSales: num(r.OrderedProductSales),
		Sessions:            num(r.Sessions),
		UnitsOrdered:        num(r.UnitsOrdered),
		PageViews:           num(r.PageViews),
		UnitsRefunded:       num(r.UnitsRefunded),
		BuyBoxPercentage:    num(r.BuyBoxPercentage),
	}, true
}

type adsRecord struct {
	SellerID     bigquery.NullString  `bigquery:"seller_id"`
	SellerName   bigquery.NullString  `bigquery:"seller_name"`
	ChildASIN    bigquery.NullString  `bigquery:"child_asin"`
	RecordDate   bigquery.NullDate    `bigquery:"record_date"`
	CampaignName bigquery.NullString  `bigquery:"campaign_name"`
	Impressions  bigquery.NullFloat64 `bigquery:"impressions"`
	Clicks       bigquery.NullFloat64 `bigquery:"clicks"`
	Spend        bigquery.NullFloat64 `bigquery:"spend"`
	Sales        bigquery.NullFloat64 `bigquery:"seven_day_total_sales"`
	Orders       bigquery.NullFloat64 `bigquery:"seven_day_total_orders"`
	Units        bigquery.NullFloat64 `bigquery:"seven_day_total_units"`
}

func (r adsRecord) toRow() (snapshot.AdsRow, bool) {
	asin := str(r.ChildASIN)
	if asin == "" || !r.RecordDate.Valid {
		return snapshot.AdsRow{}, false
	}
	return snapshot.AdsRow{
		SellerID:     str(r.SellerID),
		SellerName:   str(r.SellerName),
		ChildASIN:    asin,
		RecordDate:   r.RecordDate.Date,
		CampaignName: str(r.CampaignName),
		Impressions:  num(r.Impressions),
		Clicks:       num(r.Clicks),
		Spend:        num(r.Spend),
		Sales:        num(r.Sales),
		Orders:       num(r.Orders),
		Units:        num(r.Units),
	}, true
}

type sellerRecord struct {
	SellerID    bigquery.NullString `bigquery:"seller_id"`
	SellerName  bigquery.NullString `bigquery:"seller_name"`
	Marketplace bigquery.NullString `bigquery:"marketplace"`
	AsinCount   bigquery.NullInt64  `bigquery:"asin_count"`
}

func (r sellerRecord) toRow() (snapshot.SellerRow, bool) {
	return snapshot.SellerRow{
		SellerID:    str(r.SellerID),
		SellerName:  str(r.SellerName),
		Marketplace: str(r.Marketplace),
		AsinCount:   int(r.AsinCount.Int64),
	}, true
}

func str(v bigquery.NullString) string {
	if !v.Valid {
		return ""
	}
	return strings.TrimSpace(v.StringVal)
}

func num(v bigquery.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
