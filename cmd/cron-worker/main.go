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
	"github.com/angelmondragon/sellerpulse-backend/internal/cron"
	"github.com/angelmondragon/sellerpulse-backend/pkg/config"
	"github.com/angelmondragon/sellerpulse-backend/pkg/instance"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
	"github.com/angelmondragon/sellerpulse-backend/pkg/metrics"
)

const lockNameFormat = "cron-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if !cfg.Redis.Configured() {
		logg.Error(context.Background(), "cron worker needs redis for its lock",
			fmt.Errorf("set %s or %s", config.EnvRedisURL, config.EnvRedisAddr))
		os.Exit(1)
	}

	stack, err := bootstrap.Build(context.Background(), cfg, logg, prometheus.DefaultRegisterer, bootstrap.Options{NeedRedis: true})
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap analytics", err)
		os.Exit(1)
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}()

	lock, err := cron.NewRedisLock(stack.Redis, lockName(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	warmJob, err := cron.NewWarmJob(cron.WarmJobParams{
		Logger:  logg,
		Service: stack.Service,
		Sellers: cfg.Cron.WarmSellers,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create warm job", err)
		os.Exit(1)
	}
	auditJob, err := cron.NewGapAuditJob(cron.GapAuditJobParams{
		Logger:  logg,
		Service: stack.Service,
		Sellers: cfg.Cron.WarmSellers,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gap audit job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(warmJob, auditJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
		"interval":    cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockNameFormat, env)
}
