// Package retry повторяет операции, упавшие на конкуренции за ресурс
package retry

import (
	"context"
	"time"
)

// Policy описывает ограниченный backoff
type Policy struct {
	Attempts int           // общее число попыток, включая первую
	Delay    time.Duration // пауза перед второй попыткой, дальше удваивается
}

// Default одна повторная попытка после короткой паузы
var Default = Policy{Attempts: 2, Delay: 25 * time.Millisecond}

// Do выполняет fn, повторяя её пока retryable(err) и остались попытки.
// Возвращает последнюю ошибку.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil || !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}
