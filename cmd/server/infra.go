package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"lexdraft/internal/generation/generator"
	generationservice "lexdraft/internal/generation/service"
	formstore "lexdraft/internal/generation/store"
	"lexdraft/internal/platform/config"
	"lexdraft/internal/platform/kafka"
	"lexdraft/internal/platform/postgres"
	"lexdraft/internal/platform/redis"
	profileservice "lexdraft/internal/profile/service"
	profilestore "lexdraft/internal/profile/store"
	audit "lexdraft/pkg/platform/audit"
	"lexdraft/pkg/platform/audit/consumer"
	"lexdraft/pkg/platform/audit/publisher"
	auditmemory "lexdraft/pkg/platform/audit/store/memory"
	auditpostgres "lexdraft/pkg/platform/audit/store/postgres"
	"lexdraft/pkg/platform/audit/stream"
	"lexdraft/pkg/platform/circuit"
)

// auditStore is both queried by handlers and fed by the stream consumer.
type auditStore interface {
	audit.Store
	consumer.EventStore
}

// infra holds the backends selected by configuration.
type infra struct {
	profiles profileservice.Store
	forms    generationservice.FormLog
	audit    auditStore

	producer *kafka.Producer
	consumer *kafka.Consumer
	closers  []func()
}

func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{}
	if err := in.openStores(ctx, cfg); err != nil {
		in.Close()
		return nil, err
	}
	if cfg.Kafka.Enabled() {
		if err := in.openStream(ctx, cfg.Kafka, log); err != nil {
			in.Close()
			return nil, err
		}
	}
	return in, nil
}

func (in *infra) openStores(ctx context.Context, cfg config.Server) error {
	in.forms = formstore.NewInMemoryFormLog()
	in.audit = auditmemory.NewInMemoryStore()

	switch cfg.Store {
	case config.StoreMemory:
		in.profiles = profilestore.NewInMemoryStore()
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		in.closers = append(in.closers, func() { db.Close() })
		if err := postgres.Migrate(ctx, db, profilestore.Schema, formstore.Schema, auditpostgres.Schema); err != nil {
			return err
		}
		in.profiles = profilestore.NewPostgres(db)
		in.forms = formstore.NewPostgresFormLog(sqlx.NewDb(db, "postgres"))
		in.audit = auditpostgres.New(db)
	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("REDIS_URL is required for the redis store")
		}
		in.closers = append(in.closers, func() { client.Close() })
		in.profiles = profilestore.NewRedis(client.Client)
	case config.StoreBadger:
		db, err := profilestore.OpenBadger(cfg.Badger.Path)
		if err != nil {
			return err
		}
		in.closers = append(in.closers, func() { db.Close() })
		in.profiles = profilestore.NewBadger(db)
	default:
		return fmt.Errorf("unknown LEXDRAFT_STORE %q", cfg.Store)
	}
	return nil
}

// openStream publishes audit events to Kafka and consumes them back into the
// audit store, which then only receives events through the consumer.
func (in *infra) openStream(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) error {
	producer, err := kafka.NewProducer(ctx, cfg.Brokers, cfg.AuditTopic)
	if err != nil {
		return err
	}
	in.producer = producer
	in.closers = append(in.closers, producer.Close)

	router := consumer.NewRouter(log, nil)
	router.Register(cfg.AuditTopic, consumer.NewStoreHandler(in.audit, log))
	c, err := kafka.NewConsumer(cfg.Brokers, cfg.ConsumerGroup, []string{cfg.AuditTopic}, router)
	if err != nil {
		return err
	}
	in.consumer = c
	return nil
}

// publisherStore is nil when the stream consumer owns the audit store.
func (in *infra) publisherStore() audit.Store {
	if in.producer != nil {
		return nil
	}
	return in.audit
}

func withStreamSink(in *infra) publisher.Option {
	if in.producer == nil {
		return func(*publisher.Publisher) {}
	}
	return publisher.WithSink(stream.NewSink(in.producer))
}

func (in *infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
}

// newGenerator calls the drafting service when one is configured and falls
// back to the local outline while it is unavailable.
func newGenerator(cfg config.GeneratorConfig, profiles generator.ProfileReader, log *slog.Logger) generator.Generator {
	outline := generator.NewOutline(profiles)
	if cfg.URL == "" {
		return outline
	}
	client := generator.NewHTTPClient(cfg.URL, cfg.Timeout, generator.WithHTTPLogger(log))
	return generator.NewFallback(client, outline, circuit.New("generator"), log)
}
