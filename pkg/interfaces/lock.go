package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld блокировка уже удерживается другим владельцем
var ErrLockHeld = errors.New("lock is held by another owner")

// LockPort распределенная блокировка запусков.
// Реализация может использовать Redis или любую другую систему с атомарным SET NX.
type LockPort interface {
	// Acquire получает блокировку на ttl. Если она занята, возвращает ErrLockHeld.
	// Возвращаемая функция освобождает блокировку, только если ею все еще владеет вызывающий.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(ctx context.Context) error, err error)

	// Close закрывает соединение
	Close() error
}
