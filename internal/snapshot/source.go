package snapshot

import (
	"context"

	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

// Source fetches the upstream report tables. Implementations filter by the
// key's seller and date window when they can; the engine filters again, so
// returning extra rows is harmless.
type Source interface {
	FetchMapping(ctx context.Context, key Key) ([]IdentityRow, error)
	FetchBusiness(ctx context.Context, key Key) ([]BusinessRow, error)
	FetchAds(ctx context.Context, key Key) ([]AdsRow, error)
	FetchSellers(ctx context.Context) ([]SellerRow, error)
}

// Report names used in logs, metrics and dependency errors.
const (
	ReportMapping  = string(enums.ReportKindAsinMapping)
	ReportBusiness = string(enums.ReportKindBusiness)
	ReportAds      = string(enums.ReportKindAds)
	ReportSellers  = "sellers"
)
