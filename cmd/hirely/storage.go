package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"hirely/internal/app/middleware"
	"hirely/internal/app/uow"
	"hirely/internal/infra/broker/kafka"
	"hirely/internal/infra/config"
	mongostore "hirely/internal/infra/db/mongo"
	"hirely/internal/infra/db/postgres"
	"hirely/internal/infra/obs"
	infraoutbox "hirely/internal/infra/outbox"
	"hirely/internal/infra/storage/memory"
)

// storage bundles what the selected driver provides to the application.
type storage struct {
	factory     uow.UoWFactory
	idempotency middleware.IdempotencyStore
	relay       infraoutbox.Store
	pinger      obs.Pinger
	close       func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		return newMemoryStorage(cfg.IdempotencyTTL), nil
	}
}

func newMemoryStorage(ttl time.Duration) storage {
	store := memory.NewStore()
	return storage{
		factory:     store,
		idempotency: memory.NewIdempotencyStore(ttl),
		relay:       store,
		pinger:      store,
		close:       func() {},
	}
}

func openMongo(ctx context.Context, cfg *config.Config) (storage, error) {
	client, err := mongostore.New(ctx, cfg.Mongo.URI, cfg.Mongo.DB)
	if err != nil {
		return storage{}, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		return storage{}, fmt.Errorf("mongo indexes: %w", err)
	}
	box, err := infraoutbox.NewMongoStore(ctx, client.DB)
	if err != nil {
		return storage{}, fmt.Errorf("mongo outbox: %w", err)
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return storage{}, fmt.Errorf("mongo idempotency: %w", err)
	}
	return storage{
		factory:     mongostore.NewFactory(client.DB, box),
		idempotency: idem,
		relay:       box,
		pinger:      client,
		close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(ctx)
		},
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage, error) {
	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, logger)
	if err != nil {
		return storage{}, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return storage{}, err
	}
	return storage{
		factory:     postgres.NewFactory(pool),
		idempotency: postgres.NewIdempotencyStore(pool, cfg.IdempotencyTTL),
		relay:       postgres.NewOutboxStore(pool),
		pinger:      pool,
		close:       pool.Close,
	}, nil
}

// newRelay publishes to Kafka when brokers are configured and to the log
// otherwise.
func newRelay(cfg *config.Config, store infraoutbox.Store, logger *slog.Logger) (*infraoutbox.Worker, func(), error) {
	worker := &infraoutbox.Worker{
		Store:       store,
		Interval:    cfg.Outbox.PollInterval,
		TopicPrefix: cfg.Kafka.TopicPrefix,
		Backoff:     cfg.Outbox.RetryBackoff,
		Logger:      logger,
	}
	if len(cfg.Kafka.Brokers) == 0 {
		worker.Producer = infraoutbox.LogProducer{Logger: logger}
		return worker, func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID, sarama.NewConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	worker.Producer = producer
	return worker, func() { _ = producer.Close() }, nil
}
