package events

/*
Файл publisher.go - неблокирующая доставка уведомлений об изменениях реестра.

- Non-blocking: Publish никогда не ждет Redis, событие кладется в буферизованный канал.
- Batching: воркер копит события и отправляет пачкой по таймеру или по размеру пачки.
- Drain Pattern: Stop закрывает канал и ждет, пока воркер вычитает остатки (Final Flush).
- Load Shedding: при переполнении буфера событие отбрасывается с записью в лог.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sink определяет, куда физически уходят события
type Sink interface {
	// PublishBatch отправляет пачку событий за один раз
	PublishBatch(ctx context.Context, events []Event) error
}

// NopSink - заглушка, когда Redis не настроен.
type NopSink struct{}

func (NopSink) PublishBatch(context.Context, []Event) error { return nil }

type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	SendTimeout   time.Duration
}

type Publisher struct {
	ch     chan Event
	sink   Sink
	logger *zap.Logger
	opts   Options
	wg     sync.WaitGroup

	isClosed atomic.Bool
	dropped  atomic.Int64
	mu       sync.RWMutex // Защищает отправку в ch от гонки с close в Stop
}

func NewPublisher(sink Sink, logger *zap.Logger, opts Options) *Publisher {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 5 * time.Second
	}
	return &Publisher{
		ch:     make(chan Event, opts.BufferSize),
		sink:   sink,
		logger: logger.Named("events"),
		opts:   opts,
	}
}

func (p *Publisher) Start() {
	p.wg.Add(1)
	go p.worker()
}

// Stop запирает вход и ждет, пока воркер всё отправит.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if p.isClosed.Swap(true) {
		p.mu.Unlock()
		return
	}
	close(p.ch)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("event publisher stopped", zap.Int64("dropped", p.dropped.Load()))
}

func (p *Publisher) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.isClosed.Load() {
		p.logger.Warn("event dropped: publisher is stopping", zap.String("type", event.Type))
		return
	}

	select {
	case p.ch <- event:
	default:
		p.dropped.Add(1)
		p.logger.Error("event_buffer_overflow",
			zap.String("type", event.Type),
			zap.String("entity_id", event.EntityID))
	}
}

// Pending - сколько событий ждет отправки (заполненность буфера).
func (p *Publisher) Pending() int {
	return len(p.ch)
}

func (p *Publisher) worker() {
	defer p.wg.Done()

	batch := make([]Event, 0, p.opts.BatchSize)
	ticker := time.NewTicker(p.opts.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: контекст запроса к этому моменту уже завершен
		ctx, cancel := context.WithTimeout(context.Background(), p.opts.SendTimeout)
		defer cancel()
		if err := p.sink.PublishBatch(ctx, batch); err != nil {
			p.logger.Error("event flush failed", zap.Int("batch", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case event, ok := <-p.ch:
			if !ok {
				flush() // Финальный сброс
				return
			}
			batch = append(batch, event)
			if len(batch) >= p.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
