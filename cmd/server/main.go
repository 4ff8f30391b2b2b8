package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/broker"
	"github.com/YarKhan02/Workshop-sub000/internal/config"
	"github.com/YarKhan02/Workshop-sub000/internal/infra"
	"github.com/YarKhan02/Workshop-sub000/internal/router"
	"github.com/YarKhan02/Workshop-sub000/internal/service"
	"github.com/YarKhan02/Workshop-sub000/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger; dev: pretty, prod: JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := infra.NewRedis(ctx, cfg.Redis())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Ledger events are optional; an unset KAFKA_BROKERS leaves events nil.
	var (
		events   service.EventPublisher
		brokerCB *infra.Breaker
		producer *broker.Producer
	)
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		producer = broker.NewProducer(brokers, cfg.KafkaTopic)
		brokerCB = broker.NewPublisherBreaker(cfg.BrokerBreaker())
		events = broker.NewLedgerPublisher(producer, brokerCB)
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("ledger events enabled")
	}

	dispatcher := worker.NewDispatcher(rdb)
	svcs := router.NewServices(cfg, db, events, dispatcher)

	// Worker handlers are wired here (composition root).
	pool := worker.NewPool(rdb)
	pool.Handle(worker.JobAvailabilitySync, worker.NewAvailabilitySyncWorker(svcs.Availability).Process)
	pool.Handle(worker.JobStockAlert, worker.NewStockAlertWorker().Process)
	pool.Start(ctx, rdb, cfg.WorkerPoolSize)

	worker.StartReconcileCron(ctx, worker.ReconcileCronConfig{
		Availability: svcs.Availability,
		Ledger:       svcs.Ledger,
		Products:     svcs.Products,
		Interval:     time.Duration(cfg.ReconcileIntervalMinutes) * time.Minute,
		DaysAhead:    cfg.ReconcileDaysAhead,
	})

	r := router.New(ctx, cfg, db, rdb, svcs, brokerCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("workshop backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka producer close")
		}
	}
	log.Info().Msg("server exited")
}
