package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
	"github.com/angelmondragon/sellerpulse-backend/pkg/metrics"
)

const defaultFetchTimeout = 90 * time.Second

// Loader fetches snapshots from a Source and keeps them in a Cache.
// Concurrent loads of the same key share one upstream fetch.
type Loader struct {
	source  Source
	cache   Cache
	metrics *metrics.EngineMetrics
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
	flight  singleflight.Group
}

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

func WithCache(cache Cache) LoaderOption {
	return func(l *Loader) {
		if cache != nil {
			l.cache = cache
		}
	}
}

func WithMetrics(m *metrics.EngineMetrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

func WithLogger(logg *logger.Logger) LoaderOption {
	return func(l *Loader) {
		if logg != nil {
			l.logg = logg
		}
	}
}

// WithFetchTimeout bounds one full fetch of the three report tables.
func WithFetchTimeout(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

func withClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// NewLoader builds a loader; without WithCache nothing is cached.
func NewLoader(source Source, opts ...LoaderOption) (*Loader, error) {
	if source == nil {
		return nil, errors.New("snapshot source is required")
	}
	l := &Loader{
		source:  source,
		cache:   NoopCache{},
		logg:    logger.Nop(),
		timeout: defaultFetchTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// CacheName reports the active cache backend.
func (l *Loader) CacheName() string {
	return l.cache.Name()
}

// Load returns the cached snapshot for key or fetches a fresh one.
// Cache failures are logged and treated as misses.
func (l *Loader) Load(ctx context.Context, key Key) (*Snapshot, error) {
	key = key.Normalize()
	ctx = l.logg.WithField(ctx, "snapshot_key", key.String())

	snap, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		l.logg.Warn(ctx, fmt.Sprintf("snapshot cache read failed: %v", err))
	}
	if ok && snap != nil {
		l.metrics.IncCacheHit(l.cache.Name())
		return snap, nil
	}
	l.metrics.IncCacheMiss(l.cache.Name())
	return l.load(ctx, key)
}

// Refresh fetches a fresh snapshot for key and replaces the cached one.
func (l *Loader) Refresh(ctx context.Context, key Key) (*Snapshot, error) {
	key = key.Normalize()
	ctx = l.logg.WithField(ctx, "snapshot_key", key.String())
	return l.load(ctx, key)
}

// Invalidate drops every cached snapshot that contains the seller's data.
func (l *Loader) Invalidate(ctx context.Context, seller string) (int, error) {
	n, err := l.cache.Invalidate(ctx, seller)
	if err != nil {
		return n, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate snapshot cache")
	}
	l.logg.Info(l.logg.WithFields(ctx, map[string]any{"seller": seller, "invalidated": n}), "snapshot cache invalidated")
	return n, nil
}

// Sellers lists the seller accounts known upstream.
func (l *Loader) Sellers(ctx context.Context) ([]SellerRow, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return fetch(ctx, l, ReportSellers, l.source.FetchSellers)
}

func (l *Loader) load(ctx context.Context, key Key) (*Snapshot, error) {
	result, err, _ := l.flight.Do(key.String(), func() (any, error) {
		// the fetch outlives a single caller's cancellation since others may share it
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		return l.fetchAll(fetchCtx, key)
	})
	if err != nil {
		return nil, err
	}
	snap := result.(*Snapshot)
	if err := l.cache.Set(ctx, snap); err != nil {
		l.logg.Warn(ctx, fmt.Sprintf("snapshot cache write failed: %v", err))
	}
	return snap, nil
}

func (l *Loader) fetchAll(ctx context.Context, key Key) (*Snapshot, error) {
	snap := &Snapshot{Key: key}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := fetch(gctx, l, ReportMapping, func(ctx context.Context) ([]IdentityRow, error) {
			return l.source.FetchMapping(ctx, key)
		})
		snap.Mapping = rows
		return err
	})
	g.Go(func() error {
		rows, err := fetch(gctx, l, ReportBusiness, func(ctx context.Context) ([]BusinessRow, error) {
			return l.source.FetchBusiness(ctx, key)
		})
		snap.Business = rows
		return err
	})
	g.Go(func() error {
		rows, err := fetch(gctx, l, ReportAds, func(ctx context.Context) ([]AdsRow, error) {
			return l.source.FetchAds(ctx, key)
		})
		snap.Ads = rows
		return err
	})
	if err := g.Wait(); err != nil {
		l.logg.Error(ctx, "snapshot fetch failed", err)
		return nil, err
	}
	snap.FetchedAt = l.now().UTC()
	l.logg.Info(l.logg.WithFields(ctx, map[string]any{
		"mapping_rows":  len(snap.Mapping),
		"business_rows": len(snap.Business),
		"ads_rows":      len(snap.Ads),
	}), "snapshot fetched")
	return snap, nil
}

func fetch[T any](ctx context.Context, l *Loader, report string, fn func(context.Context) ([]T, error)) ([]T, error) {
	start := time.Now()
	rows, err := fn(ctx)
	l.metrics.ObserveFetch(report, time.Since(start), len(rows), err)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("fetch %s", report)).
			WithDetails(map[string]any{"report": report})
	}
	return rows, nil
}
