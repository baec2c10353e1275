package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"

	"hirely/internal/infra/broker/kafka"
	"hirely/internal/infra/config"
	mongostore "hirely/internal/infra/db/mongo"
	"hirely/internal/infra/db/postgres"
	"hirely/internal/infra/inbox"
	"hirely/internal/infra/obs"
)

var topics = []string{"booking.events.v1", "ledger.events.v1", "review.events.v1"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		obs.NewLogger("dev").Warn("cannot read .env file", "error", err)
	}
	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireKafka()
	}
	if err != nil {
		obs.NewLogger("dev").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env).With("component", "notifier")

	store, closeStore, err := openInbox(ctx, cfg, logger)
	if err != nil {
		logger.Error("inbox init failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, sarama.NewConfig(), &Notifier{Inbox: store, Logger: logger}, logger)
	if err != nil {
		logger.Error("kafka consumer init failed", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	subscribed := make([]string, 0, len(topics))
	for _, t := range topics {
		subscribed = append(subscribed, cfg.Kafka.TopicPrefix+t)
	}
	logger.Info("notifier starting", "topics", subscribed, "group", cfg.Kafka.GroupID)
	if err := consumer.Run(ctx, subscribed); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("notifier stopped")
}

// openInbox keeps dedupe state next to the API's storage when it is durable.
func openInbox(ctx context.Context, cfg *config.Config, logger *slog.Logger) (inbox.Store, func(), error) {
	const consumer = "notifier"
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := mongostore.New(ctx, cfg.Mongo.URI, cfg.Mongo.DB)
		if err != nil {
			return nil, nil, err
		}
		store, err := inbox.NewMongoStore(ctx, client.DB, consumer)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(ctx)
		}, nil
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return inbox.NewPostgresStore(pool, consumer), pool.Close, nil
	default:
		return inbox.NewMemoryStore(), func() {}, nil
	}
}
