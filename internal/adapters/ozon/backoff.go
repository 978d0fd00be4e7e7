package ozon

import (
	"context"
	"time"
)

// Backoff экспоненциальная задержка между попытками
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay задержка после попытки с номером n (с нуля): min(Initial*2^n, Max)
func (b Backoff) Delay(n int) time.Duration {
	d := b.Initial
	if d <= 0 {
		return 0
	}
	for i := 0; i < n; i++ {
		if b.Max > 0 && d >= b.Max {
			break
		}
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// sleep ждет d или отмены контекста
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
