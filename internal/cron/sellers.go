package cron

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	"github.com/angelmondragon/sellerpulse-backend/internal/identity"
)

type sellerLister interface {
	Sellers(ctx context.Context) (*types.SellersResponse, error)
}

// resolveSellers returns the configured sellers, or every listed seller when
// none are configured.
func resolveSellers(ctx context.Context, lister sellerLister, configured []string) ([]string, error) {
	names := lo.Uniq(lo.Compact(lo.Map(configured, func(name string, _ int) string {
		return strings.TrimSpace(name)
	})))
	if len(names) > 0 {
		return names, nil
	}
	resp, err := lister.Sellers(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Compact(lo.Map(resp.Sellers, func(s identity.Seller, _ int) string {
		return strings.TrimSpace(s.SellerName)
	})), nil
}
