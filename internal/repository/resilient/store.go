package resilient

/*
Файл store.go - декоратор хранилища: повторы транзиентных ошибок (retry-go)
внутри предохранителя (gobreaker). Ledger про повторы ничего не знает.

Нарушения инвариантов (DuplicateId, NotFound и т.д.) - это ответ, а не сбой:
они не повторяются и не считаются отказом для Circuit Breaker.
*/

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/claims-ledger/internal/domain"
	"github.com/xela07ax/claims-ledger/internal/ledger"
)

// ErrUnavailable - предохранитель разомкнут, хранилище временно не принимает запросы.
var ErrUnavailable = errors.New("resilient: store unavailable")

type Config struct {
	Attempts uint
	Delay    time.Duration

	CBMaxRequests uint32
	CBInterval    time.Duration
	CBTimeout     time.Duration // Время, через которое CB попробует "закрыться"
	CBFailures    uint32        // Подряд идущих отказов до размыкания
}

// BreakerObserver получает переходы предохранителя (для метрик).
type BreakerObserver func(name string, open bool)

type Store struct {
	next     ledger.Store
	cb       *gobreaker.CircuitBreaker
	attempts uint
	delay    time.Duration
	logger   *zap.Logger
}

var _ ledger.Store = (*Store)(nil)

func New(next ledger.Store, cfg Config, logger *zap.Logger, observe BreakerObserver) *Store {
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 100 * time.Millisecond
	}
	if cfg.CBFailures == 0 {
		cfg.CBFailures = 5
	}
	logger = logger.Named("resilient-store")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ledger-store",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CBFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || domain.IsLedgerError(err) || isCanceled(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if observe != nil {
				observe(name, to == gobreaker.StateOpen)
			}
		},
	})

	return &Store{
		next:     next,
		cb:       cb,
		attempts: cfg.Attempts,
		delay:    cfg.Delay,
		logger:   logger,
	}
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		attempt := 0
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(s.attempts),
			retry.Delay(s.delay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(isTransient),
		)

		return nil, r.Do(func() error {
			attempt++
			err := s.next.Atomically(ctx, fn)
			if err != nil && isTransient(err) {
				s.logger.Warn("transient store error",
					zap.Int("attempt", attempt),
					zap.Error(err))
			}
			return err
		})
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *Store) Close() error {
	return s.next.Close()
}

// State отдает текущее состояние предохранителя (для health-check).
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

func isTransient(err error) bool {
	return err != nil && !domain.IsLedgerError(err) && !isCanceled(err) && !errors.Is(err, ledger.ErrCommitUnknown)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
