package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ListenOptions - паузы перед повторной подпиской.
type ListenOptions struct {
	RetryDelay     time.Duration // после неудачной подписки
	ReconnectDelay time.Duration // после обрыва канала
}

// Listen - "живучая" подписка на уведомления реестра. Переподключается при обрывах
// и возвращает управление только после отмены ctx.
func Listen(ctx context.Context, rdb redis.UniversalClient, logger *zap.Logger, channel string, opts ListenOptions, onEvent func(Event)) {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	logger = logger.Named("events-listener")

	for {
		pubsub := rdb.Subscribe(ctx, channel)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to subscribe", zap.String("chan", channel), zap.Error(err))
			if !sleep(ctx, opts.RetryDelay) {
				return
			}
			continue
		}
		logger.Info("subscribed", zap.String("chan", channel))

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Error("invalid event payload", zap.String("payload", msg.Payload), zap.Error(err))
					continue
				}
				onEvent(event)
			}
		}

		pubsub.Close()
		if !sleep(ctx, opts.ReconnectDelay) {
			return
		}
	}
}

// sleep ждет d или отмены ctx. false - контекст отменен.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
