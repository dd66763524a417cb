package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpapi "notamcore/internal/http"
	"notamcore/internal/notam/events"
	"notamcore/internal/notam/handler"
	notammetrics "notamcore/internal/notam/metrics"
	"notamcore/internal/notam/priority"
	"notamcore/internal/notam/service"
	"notamcore/internal/notam/store"
	"notamcore/internal/platform/config"
	"notamcore/internal/platform/httpserver"
	"notamcore/internal/platform/logger"
	platformmetrics "notamcore/internal/platform/metrics"
	"notamcore/internal/platform/postgres"
	"notamcore/internal/platform/redis"
	"notamcore/internal/platform/sqlite"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		file := logger.RotatingFile(cfg.LogFile)
		defer file.Close()
		out = file
	}
	log := logger.NewWithWriter(out, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	cycles, checks, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if cfg.CycleCacheSize > 0 {
		cycles = store.NewCachedStore(cycles, cfg.CycleCacheSize, cfg.CycleCacheTTL)
	}

	publisher, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	evaluator := priority.New(
		priority.WithProximityNM(cfg.Priority.ProximityNM),
		priority.WithAltitudeToleranceFt(cfg.Priority.AltitudeToleranceFt),
		priority.WithConcurrency(cfg.Priority.Concurrency),
	)
	svc := service.New(cycles,
		service.WithEvaluator(evaluator),
		service.WithPublisher(publisher),
		service.WithLogger(log),
		service.WithMetrics(notammetrics.New()),
	)

	router := httpapi.NewRouter(httpapi.Config{
		Modules:      []httpapi.Registrar{handler.New(svc, log)},
		Metrics:      platformmetrics.New(),
		HealthChecks: checks,
	})

	log.Info("starting notam service",
		"addr", cfg.Addr,
		"store", cfg.StoreBackend,
		"kafka", cfg.Kafka.Enabled(),
		"rules", evaluator.RuleNames(),
	)
	return httpserver.Run(ctx, httpserver.New(cfg.Addr, router), log)
}

func buildStore(ctx context.Context, cfg config.Server) (service.Store, []httpapi.HealthCheck, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		if client == nil {
			return nil, nil, nil, fmt.Errorf("STORE_BACKEND=redis requires REDIS_URL")
		}
		checks := []httpapi.HealthCheck{{Name: "redis", Check: redis.Health(client)}}
		return store.NewRedisStore(client, store.WithTTL(cfg.CycleTTL)), checks, func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if db == nil {
			return nil, nil, nil, fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
		}
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		checks := []httpapi.HealthCheck{{Name: "postgres", Check: db.PingContext}}
		return pg, checks, func() { _ = db.Close() }, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		lite := store.NewSQLiteStore(db)
		if err := lite.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		checks := []httpapi.HealthCheck{{Name: "sqlite", Check: db.PingContext}}
		return lite, checks, func() { _ = db.Close() }, nil

	default:
		return store.NewInMemoryStore(), nil, func() {}, nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Server, log *slog.Logger) (events.Publisher, error) {
	if !cfg.Kafka.Enabled() {
		return events.NopPublisher{}, nil
	}
	client, err := events.NewKafkaClient(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, err
	}
	if err := events.EnsureTopic(ctx, client, cfg.Kafka.Topic, 3, 1); err != nil {
		// Topic creation may be forbidden by broker ACLs; producing can still work.
		log.Warn("could not ensure kafka topic", "topic", cfg.Kafka.Topic, "error", err)
	}
	return events.NewKafkaPublisher(client, cfg.Kafka.Topic, events.WithLogger(log)), nil
}
