package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript удаляет ключ, только если значение совпадает с токеном владельца
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker блокировка запусков на Redis (SET NX PX)
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLocker подключается к Redis и проверяет соединение
func NewRedisLocker(ctx context.Context, host string, port int, password string, db int, prefix string) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Password:     password,
		DB:           db,
		PoolSize:     4,
		MaxRetries:   3,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisLockerWithClient(client, prefix), nil
}

// NewRedisLockerWithClient использует готовый клиент
func NewRedisLockerWithClient(client redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

func (r *RedisLocker) buildKey(key string) string {
	if r.prefix != "" {
		return r.prefix + ":" + key
	}
	return key
}

// Acquire реализация интерфейса LockPort
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, error) {
	fullKey := r.buildKey(key)
	token := uuid.New().String()

	ok, err := r.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения блокировки %s: %w", fullKey, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrLockHeld, fullKey)
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{fullKey}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("ошибка освобождения блокировки %s: %w", fullKey, err)
		}
		return nil
	}
	return release, nil
}

// Close реализация интерфейса LockPort
func (r *RedisLocker) Close() error {
	return r.client.Close()
}
