package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/loyalty-backend/internal/benefits"
	"github.com/angelmondragon/loyalty-backend/internal/users"
	"github.com/angelmondragon/loyalty-backend/internal/worker"
	"github.com/angelmondragon/loyalty-backend/pkg/config"
	"github.com/angelmondragon/loyalty-backend/pkg/db"
	"github.com/angelmondragon/loyalty-backend/pkg/lock"
	"github.com/angelmondragon/loyalty-backend/pkg/logger"
	"github.com/angelmondragon/loyalty-backend/pkg/metrics"
	"github.com/angelmondragon/loyalty-backend/pkg/migrate"
	"github.com/angelmondragon/loyalty-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "benefit-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "benefit-worker"

	logg = logger.New(logger.Options{
		ServiceName: "benefit-worker",
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

	guard, err := lock.NewGuard(redisClient, cfg.Lock.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create distribution guard", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	benefitsService, err := benefits.NewService(
		benefits.NewRepository(dbClient.DB()),
		usersRepo,
		dbClient,
		guard,
		redisClient,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create benefits service", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	job, err := worker.NewDistributionJob(worker.DistributionJobParams{
		Users:     usersRepo,
		Benefits:  benefitsService,
		Logger:    logg,
		Metrics:   jobMetrics,
		Counter:   redisClient,
		BatchSize: cfg.Worker.UserBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create distribution job", err)
		os.Exit(1)
	}

	cycleLock, err := worker.NewRedisLock(redisClient, redisClient.LockKey("worker", cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := worker.NewService(worker.ServiceParams{
		Logger:   logg,
		Registry: worker.NewRegistry(job),
		Lock:     cycleLock,
		Metrics:  jobMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"schedule":    cfg.Worker.DistributionSchedule,
	})
	logg.Info(ctx, "starting benefit worker")

	go serveMetrics(ctx, logg)

	if err := service.Start(ctx, cfg.Worker.DistributionSchedule); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "benefit worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "benefit worker shutting down gracefully")
}

// serveMetrics exposes the Prometheus endpoint on a sidecar listener.
func serveMetrics(ctx context.Context, logg *logger.Logger) {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		addr = ":9091"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics listener stopped unexpectedly", err)
	}
}
