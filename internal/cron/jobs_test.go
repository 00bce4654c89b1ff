package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	"github.com/angelmondragon/sellerpulse-backend/internal/gaps"
	"github.com/angelmondragon/sellerpulse-backend/internal/identity"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
)

type stubAnalytics struct {
	sellers    []identity.Seller
	sellersErr error
	refreshed  []string
	refreshErr map[string]error
	gapCalls   []types.GapsRequest
	gapsErr    map[string]error
	gaps       []gaps.Gap
}

func (s *stubAnalytics) Sellers(context.Context) (*types.SellersResponse, error) {
	if s.sellersErr != nil {
		return nil, s.sellersErr
	}
	return &types.SellersResponse{Sellers: s.sellers, Count: len(s.sellers)}, nil
}

func (s *stubAnalytics) Refresh(_ context.Context, seller string, warm bool) (*types.RefreshResult, error) {
	if err := s.refreshErr[seller]; err != nil {
		return nil, err
	}
	s.refreshed = append(s.refreshed, seller)
	return &types.RefreshResult{Seller: seller, Invalidated: 1, Warmed: warm}, nil
}

func (s *stubAnalytics) Gaps(_ context.Context, req types.GapsRequest) (*types.GapsResponse, error) {
	s.gapCalls = append(s.gapCalls, req)
	if err := s.gapsErr[req.Seller]; err != nil {
		return nil, err
	}
	return &types.GapsResponse{Seller: req.Seller, Gaps: s.gaps, Count: len(s.gaps)}, nil
}

func TestWarmJobUsesConfiguredSellers(t *testing.T) {
	svc := &stubAnalytics{sellers: []identity.Seller{{SellerName: "Listed"}}}
	job, err := NewWarmJob(WarmJobParams{Logger: logger.Nop(), Service: svc, Sellers: []string{" Acme ", "", "Acme", "Beta"}})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"Acme", "Beta"}, svc.refreshed)
	assert.Equal(t, WarmJobName, job.Name())
}

func TestWarmJobFallsBackToListedSellersAndCollectsErrors(t *testing.T) {
	svc := &stubAnalytics{
		sellers:    []identity.Seller{{SellerName: "Acme"}, {SellerName: "Broken"}, {SellerName: "Cora"}},
		refreshErr: map[string]error{"Broken": pkgerrors.New(pkgerrors.CodeDependency, "metabase timeout")},
	}
	job, err := NewWarmJob(WarmJobParams{Logger: logger.Nop(), Service: svc})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, []string{"Acme", "Cora"}, svc.refreshed)
}

func TestWarmJobListFailure(t *testing.T) {
	svc := &stubAnalytics{sellersErr: errors.New("down")}
	job, err := NewWarmJob(WarmJobParams{Logger: logger.Nop(), Service: svc})
	require.NoError(t, err)
	require.ErrorContains(t, job.Run(context.Background()), "list sellers")
}

func TestGapAuditChecksBothGranularities(t *testing.T) {
	svc := &stubAnalytics{
		gaps: []gaps.Gap{
			{Entity: "B001", GapType: enums.GapTypeMissingAds},
			{Entity: "B002", GapType: enums.GapTypeMissingBoth},
		},
		gapsErr: map[string]error{"Gone": pkgerrors.New(pkgerrors.CodeNotFound, "no mapping")},
	}
	job, err := NewGapAuditJob(GapAuditJobParams{Logger: logger.Nop(), Service: svc, Sellers: []string{"Acme", "Gone"}})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, svc.gapCalls, 4)
	assert.Equal(t, "weekly", svc.gapCalls[0].Granularity)
	assert.Equal(t, "monthly", svc.gapCalls[1].Granularity)
	assert.Equal(t, "combined", svc.gapCalls[0].Source)
}

func TestGapAuditReportsFailures(t *testing.T) {
	svc := &stubAnalytics{gapsErr: map[string]error{"Acme": errors.New("boom")}}
	job, err := NewGapAuditJob(GapAuditJobParams{Logger: logger.Nop(), Service: svc, Sellers: []string{"Acme"}})
	require.NoError(t, err)

	err = job.Run(context.Background())
	assert.Len(t, multierr.Errors(err), 2)
}

func TestJobConstructorsValidate(t *testing.T) {
	_, err := NewWarmJob(WarmJobParams{Service: &stubAnalytics{}})
	require.Error(t, err)
	_, err = NewGapAuditJob(GapAuditJobParams{Logger: logger.Nop()})
	require.Error(t, err)
}
