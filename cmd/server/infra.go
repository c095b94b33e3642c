package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"reconciler/internal/contact/cache"
	"reconciler/internal/contact/ports"
	contactstore "reconciler/internal/contact/store"
	orderservice "reconciler/internal/order/service"
	orderstore "reconciler/internal/order/store"
	"reconciler/internal/outbox"
	"reconciler/internal/platform/config"
	"reconciler/internal/platform/database"
	"reconciler/internal/platform/redis"
)

type outboxStore interface {
	ports.EventSink
	outbox.BatchStore
}

// infra holds the storage, cache and messaging backends selected by config.
type infra struct {
	backend string

	db        *sql.DB
	redis     *redis.Client
	kafka     *outbox.KafkaPublisher
	publisher outbox.Publisher

	contactStore ports.Store
	contactTx    ports.StoreTx
	orderStore   orderservice.Store
	outbox       outboxStore
	cache        ports.ClusterCache
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{}

	if cfg.Database.URL == "" {
		mem := contactstore.NewInMemory()
		in.backend = "memory"
		in.contactStore = mem
		in.contactTx = contactstore.NewInMemoryTx(mem, cfg.Resolve.TxTimeout)
		in.orderStore = orderstore.NewInMemory()
		in.outbox = outbox.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	} else {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		in.db = db
		if err := database.Migrate(ctx, db); err != nil {
			in.Close()
			return nil, err
		}
		pg := contactstore.NewPostgres(db)
		in.backend = "postgres"
		in.contactStore = pg
		in.contactTx = contactstore.NewPostgresTx(db, pg, cfg.Resolve.TxTimeout)
		in.orderStore = orderstore.NewPostgres(db)
		in.outbox = outbox.NewPostgresStore(db)
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close()
		return nil, err
	}
	if client != nil {
		in.redis = client
		in.cache = cache.NewRedis(client.Client, cfg.Redis.ClusterTTL, cache.WithLogger(log))
	} else {
		in.cache = cache.NewInMemory(cfg.Redis.ClusterTTL)
	}

	if len(cfg.Kafka.Brokers) == 0 {
		in.publisher = outbox.NewLogPublisher(log)
		return in, nil
	}
	kafka, err := outbox.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		in.Close()
		return nil, err
	}
	in.kafka = kafka
	in.publisher = kafka
	if err := kafka.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
		in.Close()
		return nil, err
	}
	return in, nil
}

// Health pings every configured backend.
func (in *infra) Health(ctx context.Context) error {
	var errs []error
	if in.db != nil {
		if err := in.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if in.redis != nil {
		if err := in.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if in.kafka != nil {
		if err := in.kafka.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (in *infra) Close() {
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.db != nil {
		_ = in.db.Close()
	}
}
