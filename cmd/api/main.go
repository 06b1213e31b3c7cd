package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joinhively/hively-backend/api/routes"
	"github.com/joinhively/hively-backend/internal/engine"
	"github.com/joinhively/hively-backend/internal/friends"
	"github.com/joinhively/hively-backend/internal/notifications"
	"github.com/joinhively/hively-backend/internal/profiles"
	"github.com/joinhively/hively-backend/pkg/config"
	"github.com/joinhively/hively-backend/pkg/db"
	"github.com/joinhively/hively-backend/pkg/gateway/pggateway"
	"github.com/joinhively/hively-backend/pkg/gateway/redisbroker"
	"github.com/joinhively/hively-backend/pkg/logger"
	"github.com/joinhively/hively-backend/pkg/metrics"
	"github.com/joinhively/hively-backend/pkg/migrate"
	"github.com/joinhively/hively-backend/pkg/outbox"
	"github.com/joinhively/hively-backend/pkg/redis"
)

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

	broker, err := redisbroker.New(redisClient, cfg.Realtime, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create realtime broker", err)
		os.Exit(1)
	}

	gatewayMetrics := metrics.NewGatewayMetrics(prometheus.DefaultRegisterer)
	gw, err := pggateway.New(dbClient.DB(), broker, logg, gatewayMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create data gateway", err)
		os.Exit(1)
	}

	profileService, err := profiles.NewService(gw, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	notificationEmitter, err := notifications.NewOutboxEmitter(dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification emitter", err)
		os.Exit(1)
	}
	friendEmitter, err := friends.NewOutboxEmitter(dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create friend emitter", err)
		os.Exit(1)
	}

	engines, err := engine.NewRegistry(engine.Deps{
		Gateway:             gw,
		Profiles:            profileService,
		Logger:              logg,
		NotificationEmitter: notificationEmitter,
		FriendEmitter:       friendEmitter,
		QueueDepth:          cfg.Realtime.QueueDepth,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create engine registry", err)
		os.Exit(1)
	}
	defer func() {
		if err := engines.Close(); err != nil {
			logg.Error(context.Background(), "error closing engines", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, engines),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
