package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
)

const WarmJobName = "snapshot-warm"

type cacheWarmer interface {
	sellerLister
	Refresh(ctx context.Context, seller string, warm bool) (*types.RefreshResult, error)
}

type WarmJobParams struct {
	Logger  *logger.Logger
	Service cacheWarmer
	// Sellers limits the warm-up; empty warms every listed seller.
	Sellers []string
}

// NewWarmJob builds the job that drops and reloads each seller's snapshot so
// the first dashboard request of the hour hits a warm cache.
func NewWarmJob(params WarmJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("analytics service required")
	}
	return &warmJob{logg: params.Logger, svc: params.Service, sellers: params.Sellers}, nil
}

type warmJob struct {
	logg    *logger.Logger
	svc     cacheWarmer
	sellers []string
}

func (j *warmJob) Name() string { return WarmJobName }

func (j *warmJob) Run(ctx context.Context) error {
	sellers, err := resolveSellers(ctx, j.svc, j.sellers)
	if err != nil {
		return fmt.Errorf("list sellers: %w", err)
	}

	var errs error
	warmed := 0
	for _, seller := range sellers {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		result, err := j.svc.Refresh(ctx, seller, true)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("warm %q: %w", seller, err))
			continue
		}
		warmed++
		j.logg.Debug(j.logg.WithFields(ctx, map[string]any{
			"seller_name": seller,
			"invalidated": result.Invalidated,
		}), "seller snapshot warmed")
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"sellers": len(sellers),
		"warmed":  warmed,
		"failed":  len(multierr.Errors(errs)),
	}), "snapshot warm-up complete")
	return errs
}
