// Package events публикует изменения статусов бронирований
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
}

// RedisPublisher публикует события в Redis pub/sub канал
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.BookingStatusChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events.RedisPublisher.Publish: marshal: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("events.RedisPublisher.Publish: %w", err)
	}
	return nil
}

// LogPublisher пишет события в лог, когда Redis выключен
type LogPublisher struct {
	logger Logger
}

func NewLogPublisher(logger Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.BookingStatusChanged) error {
	p.logger.Info("BookingStatusChanged: booking=%s ref=%s %s -> %s by=%s",
		event.BookingID, event.Reference, event.From, event.To, event.ActorID)
	return nil
}
