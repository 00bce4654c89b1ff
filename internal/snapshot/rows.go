package snapshot

import (
	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

// IdentityRow is one child ASIN of the ASIN mapping table.
type IdentityRow struct {
	SellerID       string `json:"seller_id"`
	SellerName     string `json:"seller_name"`
	Marketplace    string `json:"marketplace,omitempty"`
	ChildASIN      string `json:"child_asin"`
	ParentASIN     string `json:"parent_asin,omitempty"`
	NormalizedName string `json:"normalized_name,omitempty"`
	// DisplayName is the adjusted normalized name shown to users.
	DisplayName string `json:"display_name,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
	Title       string `json:"title,omitempty"`
}

// BusinessRow is one business report row for a child ASIN and period.
// Numeric fields are nil when the upstream value was absent.
type BusinessRow struct {
	SellerID            string            `json:"seller_id"`
	SellerName          string            `json:"seller_name,omitempty"`
	ChildASIN           string            `json:"child_asin"`
	PeriodStart         civil.Date        `json:"period_start_date"`
	Granularity         enums.Granularity `json:"period_granularity"`
	OrderedProductSales *float64          `json:"ordered_product_sales"`
	Sessions            *float64          `json:"sessions_total"`
	UnitsOrdered        *float64          `json:"units_ordered"`
	PageViews           *float64          `json:"page_views_total"`
	UnitsRefunded       *float64          `json:"units_refunded"`
	BuyBoxPercentage    *float64          `json:"buy_box_percentage"`
}

// AdsRow is one daily advertising row for an advertised ASIN and campaign.
type AdsRow struct {
	SellerID     string     `json:"seller_id"`
	SellerName   string     `json:"seller_name,omitempty"`
	ChildASIN    string     `json:"child_asin"`
	RecordDate   civil.Date `json:"record_date"`
	CampaignName string     `json:"campaign_name,omitempty"`
	Impressions  *float64   `json:"impressions"`
	Clicks       *float64   `json:"clicks"`
	Spend        *float64   `json:"spend"`
	Sales        *float64   `json:"seven_day_total_sales"`
	Orders       *float64   `json:"seven_day_total_orders"`
	Units        *float64   `json:"seven_day_total_units"`
}

// SellerRow summarises one seller account as listed upstream.
type SellerRow struct {
	SellerID       string `json:"seller_id"`
	SellerName     string `json:"seller_name"`
	AmazonSellerID string `json:"amazon_seller_id,omitempty"`
	Marketplace    string `json:"marketplace,omitempty"`
	AsinCount      int    `json:"asin_count"`
}

// Num returns a pointer to v, for building rows by hand.
func Num(v float64) *float64 {
	return &v
}
