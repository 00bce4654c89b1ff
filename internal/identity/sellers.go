package identity

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
)

// Seller summarises one seller account.
type Seller struct {
	SellerID       string `json:"seller_id"`
	SellerName     string `json:"seller_name"`
	AmazonSellerID string `json:"amazon_seller_id,omitempty"`
	Marketplace    string `json:"marketplace,omitempty"`
	AsinCount      int    `json:"asin_count"`
	ProductCount   int    `json:"product_count"`
}

// Sellers derives the seller list from mapping rows, enriched with the
// upstream seller rows when those are available. Sorted by seller name.
func Sellers(mapping []snapshot.IdentityRow, listed []snapshot.SellerRow) []Seller {
	type agg struct {
		seller   Seller
		asins    map[string]struct{}
		products map[string]struct{}
	}
	byID := make(map[string]*agg)
	get := func(id, name string) *agg {
		key := strings.TrimSpace(id)
		if key == "" {
			key = strings.TrimSpace(name)
		}
		a, ok := byID[key]
		if !ok {
			a = &agg{
				seller:   Seller{SellerID: key, SellerName: strings.TrimSpace(name)},
				asins:    make(map[string]struct{}),
				products: make(map[string]struct{}),
			}
			byID[key] = a
		}
		return a
	}

	for _, row := range listed {
		a := get(row.SellerID, row.SellerName)
		a.seller.AmazonSellerID = row.AmazonSellerID
		a.seller.Marketplace = row.Marketplace
		a.seller.AsinCount = row.AsinCount
	}
	for _, row := range mapping {
		asin := strings.TrimSpace(row.ChildASIN)
		if asin == "" {
			continue
		}
		a := get(row.SellerID, row.SellerName)
		if a.seller.SellerName == "" {
			a.seller.SellerName = strings.TrimSpace(row.SellerName)
		}
		if a.seller.Marketplace == "" {
			a.seller.Marketplace = strings.TrimSpace(row.Marketplace)
		}
		if _, seen := a.asins[asin]; seen {
			continue
		}
		a.asins[asin] = struct{}{}
		name := strings.TrimSpace(row.NormalizedName)
		if name == "" {
			name = UnknownName
		}
		a.products[name] = struct{}{}
	}

	out := lo.MapToSlice(byID, func(_ string, a *agg) Seller {
		if len(a.asins) > 0 {
			a.seller.AsinCount = len(a.asins)
		}
		a.seller.ProductCount = len(a.products)
		return a.seller
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].SellerName != out[j].SellerName {
			return out[i].SellerName < out[j].SellerName
		}
		return out[i].SellerID < out[j].SellerID
	})
	return out
}
