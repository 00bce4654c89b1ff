package cron

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	"github.com/angelmondragon/sellerpulse-backend/internal/gaps"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
)

const GapAuditJobName = "gap-audit"

type gapFinder interface {
	sellerLister
	Gaps(ctx context.Context, req types.GapsRequest) (*types.GapsResponse, error)
}

type GapAuditJobParams struct {
	Logger  *logger.Logger
	Service gapFinder
	Sellers []string
}

// NewGapAuditJob builds the job that logs every seller's missing report
// periods at both granularities, comparing business and ads coverage.
func NewGapAuditJob(params GapAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("analytics service required")
	}
	return &gapAuditJob{logg: params.Logger, svc: params.Service, sellers: params.Sellers}, nil
}

type gapAuditJob struct {
	logg    *logger.Logger
	svc     gapFinder
	sellers []string
}

func (j *gapAuditJob) Name() string { return GapAuditJobName }

func (j *gapAuditJob) Run(ctx context.Context) error {
	sellers, err := resolveSellers(ctx, j.svc, j.sellers)
	if err != nil {
		return fmt.Errorf("list sellers: %w", err)
	}

	var errs error
	total := 0
	for _, seller := range sellers {
		for _, granularity := range []enums.Granularity{enums.GranularityWeekly, enums.GranularityMonthly} {
			if ctx.Err() != nil {
				return multierr.Append(errs, ctx.Err())
			}
			resp, err := j.svc.Gaps(ctx, types.GapsRequest{
				Seller:      seller,
				Granularity: string(granularity),
				Source:      string(enums.GapSourceCombined),
			})
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				continue
			}
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("gaps %q %s: %w", seller, granularity, err))
				continue
			}
			total += resp.Count
			if resp.Count == 0 {
				continue
			}
			byType := lo.CountValuesBy(resp.Gaps, func(g gaps.Gap) enums.GapType { return g.GapType })
			j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
				"seller_name":      seller,
				"granularity":      granularity,
				"gaps":             resp.Count,
				"missing_both":     byType[enums.GapTypeMissingBoth],
				"missing_business": byType[enums.GapTypeMissingBusiness],
				"missing_ads":      byType[enums.GapTypeMissingAds],
			}), "report gaps detected")
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"sellers": len(sellers),
		"gaps":    total,
	}), "gap audit complete")
	return errs
}
