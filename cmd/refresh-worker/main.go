package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/sellerpulse-backend/internal/bootstrap"
	"github.com/angelmondragon/sellerpulse-backend/internal/refresh"
	"github.com/angelmondragon/sellerpulse-backend/pkg/config"
	"github.com/angelmondragon/sellerpulse-backend/pkg/idempotency"
	"github.com/angelmondragon/sellerpulse-backend/pkg/instance"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
	"github.com/angelmondragon/sellerpulse-backend/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "refresh-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "refresh-worker"

	logg = logger.New(logger.Options{
		ServiceName: "refresh-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if !cfg.Redis.Configured() {
		requireResource(ctx, logg, "redis", fmt.Errorf("set %s or %s", config.EnvRedisURL, config.EnvRedisAddr))
	}

	stack, err := bootstrap.Build(ctx, cfg, logg, prometheus.DefaultRegisterer, bootstrap.Options{NeedRedis: true})
	requireResource(ctx, logg, "analytics stack", err)
	defer func() {
		if err := stack.Close(); err != nil {
			logg.Error(ctx, "failed to close clients", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.RefreshSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "refresh subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(stack.Redis, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	service, err := refresh.NewService(refresh.Params{
		Subscription: subscription,
		Refresher:    stack.Service,
		Idempotency:  manager,
		Logger:       logg,
		WarmDefault:  cfg.Eventing.WarmOnRefresh,
	})
	requireResource(ctx, logg, "refresh worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  cfg.Service.Kind,
		"instance":     instance.ID(),
		"subscription": cfg.PubSub.RefreshSubscription,
	})
	logg.Info(runCtx, "refresh worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "refresh worker failed", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "refresh worker stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
