package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/qrgenpro/qrgen-backend/internal/analytics/router"
	"github.com/qrgenpro/qrgen-backend/internal/analytics/worker"
	"github.com/qrgenpro/qrgen-backend/internal/analytics/writer"
	"github.com/qrgenpro/qrgen-backend/pkg/bigquery"
	"github.com/qrgenpro/qrgen-backend/pkg/config"
	"github.com/qrgenpro/qrgen-backend/pkg/events/idempotency"
	"github.com/qrgenpro/qrgen-backend/pkg/instance"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
	"github.com/qrgenpro/qrgen-backend/pkg/pubsub"
	"github.com/qrgenpro/qrgen-backend/pkg/redis"
)

const serviceName = "analytics-worker"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceName})
	_ = godotenv.Load()

	cfg, err := config.Load()
	mustStart(ctx, logg, "config", err)
	cfg.Service.Kind = serviceName
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logg.Error(ctx, "shutdown close failed", err)
			}
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	mustStart(ctx, logg, "redis", err)
	closers = append(closers, redisClient)

	ps, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.ModeSubscribe, logg)
	mustStart(ctx, logg, "pubsub", err)
	closers = append(closers, ps)

	bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	mustStart(ctx, logg, "bigquery", err)
	closers = append(closers, bq)

	dedup, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	mustStart(ctx, logg, "event dedup", err)

	rows, err := writer.New(bq, cfg.BigQuery)
	mustStart(ctx, logg, "bigquery writer", err)

	routes, err := router.NewRouter(rows, logg)
	mustStart(ctx, logg, "analytics router", err)

	consumer, err := worker.NewService(ps.EventsSubscription(), routes, dedup, logg)
	mustStart(ctx, logg, "analytics consumer", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":      cfg.App.Env,
		"service":  cfg.Service.Kind,
		"instance": instance.GetID(),
	})
	logg.Info(runCtx, "analytics worker consuming")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "analytics worker stopped", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "analytics worker drained")
}

func mustStart(ctx context.Context, logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("startup failed: %s", what), err)
	os.Exit(1)
}
