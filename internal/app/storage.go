package app

import (
	"context"
	"fmt"

	"github.com/xela07ax/claims-ledger/internal/engine"
	"github.com/xela07ax/claims-ledger/internal/infra"
	"github.com/xela07ax/claims-ledger/internal/ledger"
	"github.com/xela07ax/claims-ledger/internal/repository/memory"
	"github.com/xela07ax/claims-ledger/internal/repository/mongostore"
	"github.com/xela07ax/claims-ledger/internal/repository/resilient"
	"github.com/xela07ax/claims-ledger/internal/repository/sqlstore"
	"go.uber.org/zap"
)

// Backend - выбранное по конфигу хранилище.
// Store уже обернут в ретраи и Circuit Breaker, если они включены.
type Backend struct {
	Store   ledger.Store
	Driver  string
	migrate func(ctx context.Context) error
}

// Migrate создает таблицы (SQL) или уникальные индексы (Mongo). Для memory ничего не делает.
func (b *Backend) Migrate(ctx context.Context) error {
	if b.migrate == nil {
		return nil
	}
	return b.migrate(ctx)
}

func (b *Backend) Close() error {
	return b.Store.Close()
}

// OpenBackend открывает хранилище по storage.driver и проверяет соединение.
func OpenBackend(ctx context.Context, cfg *infra.Config, metrics *engine.Metrics, logger *zap.Logger) (*Backend, error) {
	b := &Backend{Driver: cfg.Storage.Driver}
	var raw ledger.Store

	switch cfg.Storage.Driver {
	case "memory":
		raw = memory.New()

	case "postgres", "sqlite":
		dialect, _ := sqlstore.DialectByName(cfg.Storage.Driver)
		s, err := sqlstore.Open(dialect, cfg.Storage.DSN, sqlstore.PoolConfig{
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("database unreachable: %w", err)
		}
		b.migrate = s.EnsureSchema
		raw = s

	case "mongo":
		s, err := mongostore.Connect(ctx, cfg.Mongo.URI, mongostore.Options{
			Database:       cfg.Mongo.Database,
			MaxPoolSize:    cfg.Mongo.MaxPoolSize,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
			Transactions:   cfg.Mongo.Transactions,
		}, logger)
		if err != nil {
			return nil, err
		}
		b.migrate = s.EnsureIndexes
		raw = s

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	b.Store = raw
	// memory не оборачиваем
	if cfg.Resilience.Enabled && cfg.Storage.Driver != "memory" {
		var observe resilient.BreakerObserver
		if metrics != nil {
			observe = metrics.ObserveBreaker
		}
		b.Store = resilient.New(raw, resilient.Config{
			Attempts:      cfg.Resilience.Attempts,
			Delay:         cfg.Resilience.Delay,
			CBMaxRequests: cfg.Resilience.CBMaxRequests,
			CBInterval:    cfg.Resilience.CBInterval,
			CBTimeout:     cfg.Resilience.CBTimeout,
			CBFailures:    cfg.Resilience.CBFailures,
		}, logger, observe)
	}

	logger.Info("storage backend ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.Bool("resilient", b.Store != raw))
	return b, nil
}
