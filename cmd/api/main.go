package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/qrgenpro/qrgen-backend/api/controllers"
	"github.com/qrgenpro/qrgen-backend/api/routes"
	"github.com/qrgenpro/qrgen-backend/internal/auth"
	"github.com/qrgenpro/qrgen-backend/internal/qrcodes"
	"github.com/qrgenpro/qrgen-backend/internal/qrrender"
	"github.com/qrgenpro/qrgen-backend/internal/scans"
	"github.com/qrgenpro/qrgen-backend/internal/subscriptions"
	"github.com/qrgenpro/qrgen-backend/internal/usage"
	"github.com/qrgenpro/qrgen-backend/internal/users"
	"github.com/qrgenpro/qrgen-backend/pkg/auth/session"
	"github.com/qrgenpro/qrgen-backend/pkg/config"
	"github.com/qrgenpro/qrgen-backend/pkg/db"
	"github.com/qrgenpro/qrgen-backend/pkg/events"
	"github.com/qrgenpro/qrgen-backend/pkg/instance"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
	"github.com/qrgenpro/qrgen-backend/pkg/metrics"
	"github.com/qrgenpro/qrgen-backend/pkg/migrate"
	"github.com/qrgenpro/qrgen-backend/pkg/pubsub"
	"github.com/qrgenpro/qrgen-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	readyChecks := []controllers.ReadyCheck{
		{Name: "database", Pinger: dbClient},
		{Name: "redis", Pinger: redisClient},
	}

	var publisher events.Publisher = events.Discard{}
	if cfg.FeatureFlags.ScanEvents {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, pubsub.ModePublish, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		pubsubPublisher, err := events.NewPubSubPublisher(pubsubClient.EventsPublisher(), logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create event publisher", err)
			os.Exit(1)
		}
		publisher = pubsubPublisher
		readyChecks = append(readyChecks, controllers.ReadyCheck{Name: "pubsub", Pinger: pubsubClient})
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(dbClient.DB()),
		TransactionRunner: dbClient,
		TrialDuration:     cfg.Subscription.TrialDuration(),
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	usageRepo := usage.NewRepository(dbClient.DB())
	usageMetrics := metrics.NewUsageMetrics(prometheus.DefaultRegisterer)
	gate, err := usage.NewGate(usage.GateParams{
		Subscriptions: subscriptionService,
		Repo:          usageRepo,
		Metrics:       usageMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create usage gate", err)
		os.Exit(1)
	}
	tracker, err := usage.NewTracker(usageRepo, usageMetrics, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create usage tracker", err)
		os.Exit(1)
	}

	codesRepo := qrcodes.NewRepository(dbClient.DB())
	codeService, err := qrcodes.NewService(qrcodes.ServiceParams{
		Repo:          codesRepo,
		Renderer:      qrrender.NewGenerator(logg, metrics.NewRenderMetrics(prometheus.DefaultRegisterer)),
		Gate:          gate,
		Tracker:       tracker,
		Subscriptions: subscriptionService,
		Render:        cfg.Render,
		PublicBaseURL: cfg.App.PublicBaseURL,
		Logger:        logg,
		Events:        publisher,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create qr code service", err)
		os.Exit(1)
	}

	scanService, err := scans.NewService(scans.ServiceParams{
		Repo:              scans.NewRepository(dbClient.DB()),
		Codes:             codesRepo,
		TransactionRunner: dbClient,
		Subscriptions:     subscriptionService,
		Events:            publisher,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scan service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:          users.NewRepository(dbClient.DB()),
		Subscriptions:     subscriptionService,
		TransactionRunner: dbClient,
		SessionManager:    sessionManager,
		JWTConfig:         cfg.JWT,
		PasswordConfig:    cfg.Password,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:           cfg,
			Logger:           logg,
			ReadyChecks:      readyChecks,
			Sessions:         sessionManager,
			RateLimitStore:   redisClient,
			IdempotencyStore: redisClient,
			Auth:             authService,
			Subscriptions:    subscriptionService,
			Usage:            gate,
			UsageTracker:     tracker,
			QRCodes:          codeService,
			Scans:            scanService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-signalCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
