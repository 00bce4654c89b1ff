// Package analytics answers seller metric questions by running the engine,
// pivot builder and gap detector over cached report snapshots.
package analytics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	"github.com/angelmondragon/sellerpulse-backend/internal/engine"
	"github.com/angelmondragon/sellerpulse-backend/internal/gaps"
	"github.com/angelmondragon/sellerpulse-backend/internal/identity"
	"github.com/angelmondragon/sellerpulse-backend/internal/pivot"
	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
	"github.com/angelmondragon/sellerpulse-backend/pkg/metrics"
)

// Operation names used for logging and metrics.
const (
	OpSellers       = "list_sellers"
	OpHierarchy     = "get_seller_asins"
	OpMetrics       = "get_metrics"
	OpCumulative    = "get_cumulative_metrics"
	OpPivot         = "get_pivot_table"
	OpExport        = "export_csv"
	OpYoY           = "get_yoy_comparison"
	OpGaps          = "get_data_gaps"
	OpCoverage      = "get_data_coverage"
	OpFilterOptions = "get_filter_options"
	OpRefresh       = "refresh_seller"
)

// Service exposes the analytics operations shared by the HTTP API, the tool
// executor and the background workers.
type Service interface {
	Sellers(ctx context.Context) (*types.SellersResponse, error)
	Hierarchy(ctx context.Context, seller string) (*types.HierarchyResponse, error)
	Metrics(ctx context.Context, req types.MetricsRequest) (*engine.Table, error)
	CumulativeMetrics(ctx context.Context, req types.MetricsRequest) (*engine.Table, error)
	Pivot(ctx context.Context, req types.PivotRequest) (*pivot.Pivot, error)
	ExportCSV(ctx context.Context, req types.ExportRequest) (*Export, error)
	YoY(ctx context.Context, req types.YoYRequest) (*engine.YoYTable, error)
	Gaps(ctx context.Context, req types.GapsRequest) (*types.GapsResponse, error)
	Coverage(ctx context.Context, seller string) (*types.CoverageResponse, error)
	FilterOptions(ctx context.Context) (*types.FilterOptions, error)
	Refresh(ctx context.Context, seller string, warm bool) (*types.RefreshResult, error)
}

// Export is a rendered CSV pivot.
type Export struct {
	Filename string
	Data     []byte
	Rows     int
}

type snapshotLoader interface {
	Load(ctx context.Context, key snapshot.Key) (*snapshot.Snapshot, error)
	Refresh(ctx context.Context, key snapshot.Key) (*snapshot.Snapshot, error)
	Invalidate(ctx context.Context, seller string) (int, error)
	Sellers(ctx context.Context) ([]snapshot.SellerRow, error)
}

type service struct {
	loader   snapshotLoader
	engine   *engine.Engine
	detector *gaps.Detector
	metrics  *metrics.EngineMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the analytics service. Metrics may be nil.
func NewService(loader snapshotLoader, eng *engine.Engine, m *metrics.EngineMetrics, logg *logger.Logger) (Service, error) {
	if loader == nil {
		return nil, errors.New("snapshot loader required")
	}
	if eng == nil {
		return nil, errors.New("metrics engine required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		loader:   loader,
		engine:   eng,
		detector: gaps.NewDetector(eng.Options().WeekStart),
		metrics:  m,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Sellers(ctx context.Context) (resp *types.SellersResponse, err error) {
	defer s.observe(ctx, OpSellers, time.Now(), &err)

	listed, err := s.loader.Sellers(ctx)
	if err != nil {
		return nil, err
	}
	sellers := identity.Sellers(nil, listed)
	return &types.SellersResponse{Sellers: sellers, Count: len(sellers)}, nil
}

func (s *service) Hierarchy(ctx context.Context, seller string) (resp *types.HierarchyResponse, err error) {
	ctx = s.scope(ctx, seller)
	defer s.observe(ctx, OpHierarchy, time.Now(), &err)

	snap, err := s.load(ctx, seller)
	if err != nil {
		return nil, err
	}
	h := identity.Build(snap.Mapping)
	if h.Len() == 0 && strings.TrimSpace(seller) != "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no ASIN mapping for seller %q", seller))
	}
	parents := h.Parents()
	return &types.HierarchyResponse{
		Seller:    seller,
		Parents:   parents,
		Count:     len(parents),
		ASINCount: h.Len(),
		Conflicts: h.Conflicts(),
	}, nil
}

func (s *service) Metrics(ctx context.Context, req types.MetricsRequest) (table *engine.Table, err error) {
	ctx = s.scope(ctx, req.Seller)
	defer s.observe(ctx, OpMetrics, time.Now(), &err)

	snap, err := s.load(ctx, req.Seller)
	if err != nil {
		return nil, err
	}
	return s.engine.GetMetrics(snap, metricsQuery(req, defaultMetricsLevel))
}

func (s *service) CumulativeMetrics(ctx context.Context, req types.MetricsRequest) (table *engine.Table, err error) {
	ctx = s.scope(ctx, req.Seller)
	defer s.observe(ctx, OpCumulative, time.Now(), &err)

	snap, err := s.load(ctx, req.Seller)
	if err != nil {
		return nil, err
	}
	return s.engine.GetCumulativeMetrics(snap, metricsQuery(req, defaultMetricsLevel))
}

func (s *service) Pivot(ctx context.Context, req types.PivotRequest) (p *pivot.Pivot, err error) {
	ctx = s.scope(ctx, req.Seller)
	defer s.observe(ctx, OpPivot, time.Now(), &err)
	return s.pivot(ctx, req)
}

func (s *service) pivot(ctx context.Context, req types.PivotRequest) (*pivot.Pivot, error) {
	opts, err := pivotOptionsOf(req)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, req.Seller)
	if err != nil {
		return nil, err
	}
	q := metricsQuery(req.MetricsRequest, defaultPivotLevel)
	q.IncludeComparison = false
	table, err := s.engine.GetMetrics(snap, q)
	if err != nil {
		return nil, err
	}
	built, err := pivot.Build(table, opts.preset, opts.includeTotals)
	if err != nil {
		return nil, err
	}
	return pivot.Reorder(built, req.MetricOrder, opts.periodOrder), nil
}

func (s *service) ExportCSV(ctx context.Context, req types.ExportRequest) (export *Export, err error) {
	ctx = s.scope(ctx, req.Seller)
	defer s.observe(ctx, OpExport, time.Now(), &err)

	p, err := s.pivot(ctx, req.PivotRequest)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pivot.WriteCSV(&buf, p); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render csv")
	}
	q := metricsQuery(req.MetricsRequest, defaultPivotLevel)
	return &Export{
		Filename: exportFilename(req.Filename, req.Seller, string(q.Level), string(q.Granularity), s.now()),
		Data:     buf.Bytes(),
		Rows:     p.Count(),
	}, nil
}

func (s *service) YoY(ctx context.Context, req types.YoYRequest) (table *engine.YoYTable, err error) {
	ctx = s.scope(ctx, req.Seller)
	defer s.observe(ctx, OpYoY, time.Now(), &err)

	snap, err := s.load(ctx, req.Seller)
	if err != nil {
		return nil, err
	}
	return s.engine.GetYoYComparison(snap, yoyQuery(req))
}

func (s *service) Gaps(ctx context.Context, req types.GapsRequest) (resp *types.GapsResponse, err error) {
	ctx = s.scope(ctx, req.Seller)
	defer s.observe(ctx, OpGaps, time.Now(), &err)

	snap, err := s.load(ctx, req.Seller)
	if err != nil {
		return nil, err
	}
	q := gapsQuery(req)
	found, err := s.detector.Detect(snap, q)
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []gaps.Gap{}
	}
	return &types.GapsResponse{
		Seller:      req.Seller,
		Granularity: q.Granularity,
		Source:      q.Source,
		Gaps:        found,
		Count:       len(found),
	}, nil
}

func (s *service) Coverage(ctx context.Context, seller string) (resp *types.CoverageResponse, err error) {
	ctx = s.scope(ctx, seller)
	defer s.observe(ctx, OpCoverage, time.Now(), &err)

	snap, err := s.load(ctx, seller)
	if err != nil {
		return nil, err
	}
	coverage := gaps.CoverageSummary(snap)
	if coverage == nil {
		coverage = []gaps.Coverage{}
	}
	return &types.CoverageResponse{Seller: seller, Coverage: coverage, Count: len(coverage)}, nil
}

func (s *service) FilterOptions(ctx context.Context) (opts *types.FilterOptions, err error) {
	defer s.observe(ctx, OpFilterOptions, time.Now(), &err)
	return filterOptions()
}

// Refresh drops the seller's cached snapshots and, when warm is set, fetches
// a fresh one straight away.
func (s *service) Refresh(ctx context.Context, seller string, warm bool) (result *types.RefreshResult, err error) {
	ctx = s.scope(ctx, seller)
	defer s.observe(ctx, OpRefresh, time.Now(), &err)

	n, err := s.loader.Invalidate(ctx, seller)
	if err != nil {
		return nil, err
	}
	result = &types.RefreshResult{Seller: seller, Invalidated: n}
	if !warm {
		return result, nil
	}
	if _, err := s.loader.Refresh(ctx, snapshotKey(seller)); err != nil {
		return nil, err
	}
	result.Warmed = true
	return result, nil
}

func (s *service) load(ctx context.Context, seller string) (*snapshot.Snapshot, error) {
	return s.loader.Load(ctx, snapshotKey(seller))
}

// snapshotKey leaves granularity and dates open: one snapshot per seller
// serves every operation, including comparison and year-over-year lookbacks.
func snapshotKey(seller string) snapshot.Key {
	return snapshot.Key{Seller: seller}.Normalize()
}

func (s *service) scope(ctx context.Context, seller string) context.Context {
	if strings.TrimSpace(seller) == "" {
		return ctx
	}
	return s.logg.WithSeller(ctx, seller)
}

func (s *service) observe(ctx context.Context, op string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	var err error
	if errp != nil {
		err = *errp
	}
	s.metrics.ObserveOperation(op, elapsed, err)

	ctx = s.logg.WithFields(ctx, map[string]any{"operation": op, "duration_ms": elapsed.Milliseconds()})
	switch {
	case err == nil:
		s.logg.Debug(ctx, "analytics operation completed")
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation), pkgerrors.IsCode(err, pkgerrors.CodeConfiguration), pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		s.logg.Info(s.logg.WithField(ctx, "reason", err.Error()), "analytics operation rejected")
	default:
		s.logg.Error(ctx, "analytics operation failed", err)
	}
}
