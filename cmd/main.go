package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"trending/config"
	"trending/internal/aggregator"
	"trending/internal/api"
	"trending/internal/clickhouse"
	"trending/internal/postgres"
	"trending/internal/rabbitmq"
	"trending/internal/ranking"
	"trending/internal/redislock"
	"trending/internal/scoring"
	"trending/internal/store"
	"trending/internal/workers"
	"trending/pkg/logger"
)

func main() {
	// Initialize logger
	logger.Init()
	log := logger.With("main")
	log.Info().Msg("starting trending metrics engine")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Info().
		Str("rabbitmq", cfg.RabbitMQ.URL).
		Str("postgres", cfg.Postgres.Host).
		Str("clickhouse", cfg.ClickHouse.Host).
		Str("redis", cfg.Redis.Addr).
		Msg("configuration loaded")

	// Connect to Postgres
	pgClient, err := postgres.NewClient(postgres.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		Username: cfg.Postgres.Username,
		Password: cfg.Postgres.Password,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	defer pgClient.Close()
	if err := pgClient.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate metric tables")
	}
	log.Info().Msg("connected to Postgres")

	// Connect to ClickHouse (raw event archive)
	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to ClickHouse")
	}
	defer chClient.Close()
	archiveCtx, archiveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	archived, err := chClient.CountEventsSince(archiveCtx, time.Now().Add(-cfg.Scoring.DedupRetention))
	archiveCancel()
	if err != nil {
		log.Warn().Err(err).Msg("connected to ClickHouse, archive depth unavailable")
	} else {
		log.Info().Uint64("archived_events", archived).Msg("connected to ClickHouse")
	}

	// Connect to Redis (sweep lock)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Connect to RabbitMQ
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event consumer")
	}
	defer consumer.Close()
	log.Info().Msg("connected to RabbitMQ")

	// Build the pipeline: store -> scoring -> aggregator -> worker
	metricStore := store.New(pgClient.DB())
	updater := scoring.NewUpdater(metricStore)
	scheduler := scoring.NewScheduler(metricStore, updater, redislock.New(redisClient), cfg.Scoring)
	agg := aggregator.New(metricStore, chClient, scheduler)
	eventWorker := workers.NewEventWorker(consumer, agg, cfg.RabbitMQ.EventQueue)

	rankingService := ranking.NewService(metricStore)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: api.NewRouter(api.NewHandler(rankingService)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		if err := eventWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event worker stopped")
		}
	}()

	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("query API listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	log.Info().Msg("all components started")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	wg.Wait()
	log.Info().Msg("stopped gracefully")
}
