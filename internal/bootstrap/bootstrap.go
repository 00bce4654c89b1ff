// Package bootstrap assembles the analytics stack shared by every binary.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/sellerpulse-backend/internal/analytics"
	"github.com/angelmondragon/sellerpulse-backend/internal/engine"
	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	metabasesource "github.com/angelmondragon/sellerpulse-backend/internal/source/metabase"
	"github.com/angelmondragon/sellerpulse-backend/internal/source/warehouse"
	"github.com/angelmondragon/sellerpulse-backend/pkg/bigquery"
	"github.com/angelmondragon/sellerpulse-backend/pkg/config"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
	"github.com/angelmondragon/sellerpulse-backend/pkg/metabase"
	"github.com/angelmondragon/sellerpulse-backend/pkg/metrics"
	"github.com/angelmondragon/sellerpulse-backend/pkg/redis"
)

// Pinger is a client readiness can probe.
type Pinger interface {
	Ping(context.Context) error
}

// Stack is the wired analytics service plus the clients it owns.
type Stack struct {
	Service analytics.Service
	Loader  *snapshot.Loader
	Metrics *metrics.EngineMetrics
	Redis   *redis.Client

	deps    map[string]Pinger
	closers []func() error
}

// Deps lists the dependencies readiness should ping.
func (s *Stack) Deps() map[string]Pinger {
	out := make(map[string]Pinger, len(s.deps))
	for name, dep := range s.deps {
		out[name] = dep
	}
	return out
}

// Close releases every client in reverse order of creation.
func (s *Stack) Close() error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i]())
	}
	return err
}

func (s *Stack) track(name string, dep Pinger, closer func() error) {
	if dep != nil {
		s.deps[name] = dep
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
}

// Options tweak Build.
type Options struct {
	// NeedRedis dials Redis even when the cache backend does not use it.
	NeedRedis bool
}

// Build dials the configured source and cache and returns a ready service.
// On failure every client opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer, opts Options) (_ *Stack, err error) {
	stack := &Stack{deps: map[string]Pinger{}}
	defer func() {
		if err != nil {
			err = multierr.Append(err, stack.Close())
		}
	}()

	if reg != nil {
		stack.Metrics = metrics.NewEngineMetrics(reg)
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if backend == config.CacheBackendRedis || (opts.NeedRedis && cfg.Redis.Configured()) {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		stack.Redis = client
		stack.track("redis", client, client.Close)
	}

	source, err := stack.buildSource(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}

	cache, err := buildCache(cfg.Cache, stack.Redis)
	if err != nil {
		return nil, err
	}

	loader, err := snapshot.NewLoader(source,
		snapshot.WithCache(cache),
		snapshot.WithMetrics(stack.Metrics),
		snapshot.WithLogger(logg),
		snapshot.WithFetchTimeout(cfg.Source.FetchTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot loader: %w", err)
	}
	stack.Loader = loader

	engineOpts, err := EngineOptions(cfg.Engine)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(engineOpts)
	if err != nil {
		return nil, err
	}

	svc, err := analytics.NewService(loader, eng, stack.Metrics, logg)
	if err != nil {
		return nil, fmt.Errorf("analytics service: %w", err)
	}
	stack.Service = svc

	logg.Info(logg.WithFields(ctx, map[string]any{
		"source":        cfg.Source.Kind,
		"cache_backend": loader.CacheName(),
		"week_start":    engineOpts.WeekStart.String(),
	}), "analytics stack ready")
	return stack, nil
}

func (s *Stack) buildSource(ctx context.Context, cfg *config.Config, logg *logger.Logger) (snapshot.Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Source.Kind)) {
	case config.SourceKindBigQuery:
		client, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			return nil, fmt.Errorf("bigquery: %w", err)
		}
		s.track("bigquery", client, client.Close)
		return warehouse.New(client, cfg.BigQuery), nil
	case config.SourceKindMetabase:
		client, err := metabase.NewClient(cfg.Metabase.URL, cfg.Metabase.APIKey, metabase.WithTimeout(cfg.Metabase.Timeout))
		if err != nil {
			return nil, fmt.Errorf("metabase: %w", err)
		}
		s.track("metabase", client, nil)
		return metabasesource.New(client, metabasesource.Cards{
			Mapping:  cfg.Metabase.AsinMappingCard,
			Business: cfg.Metabase.BusinessCard,
			Ads:      cfg.Metabase.AdsReportCard,
			Sellers:  cfg.Metabase.SellersCard,
		}), nil
	default:
		return nil, fmt.Errorf("invalid %s %q", config.EnvSourceKind, cfg.Source.Kind)
	}
}

func buildCache(cfg config.CacheConfig, client *redis.Client) (snapshot.Cache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", config.CacheBackendMemory:
		return snapshot.NewMemoryCache(cfg.TTL, cfg.CleanupInterval), nil
	case config.CacheBackendRedis:
		if client == nil {
			return nil, fmt.Errorf("redis cache requires a redis client")
		}
		return snapshot.NewRedisCache(client, cfg.TTL)
	case config.CacheBackendOff:
		return snapshot.NoopCache{}, nil
	default:
		return nil, fmt.Errorf("invalid %s %q", config.EnvCacheBackend, cfg.Backend)
	}
}

// EngineOptions maps the engine section of the config onto engine.Options.
func EngineOptions(cfg config.EngineConfig) (engine.Options, error) {
	opts := engine.DefaultOptions()
	day, err := cfg.WeekStartDay()
	if err != nil {
		return opts, err
	}
	opts.WeekStart = day
	if strings.TrimSpace(cfg.BusinessDuplicates) != "" {
		if opts.BusinessPolicy, err = enums.ParseDuplicatePolicy(cfg.BusinessDuplicates); err != nil {
			return opts, fmt.Errorf("%s: %w", config.EnvEngineBizDupes, err)
		}
	}
	if strings.TrimSpace(cfg.AdsDuplicates) != "" {
		if opts.AdsPolicy, err = enums.ParseDuplicatePolicy(cfg.AdsDuplicates); err != nil {
			return opts, fmt.Errorf("ads duplicates: %w", err)
		}
	}
	return opts, nil
}
