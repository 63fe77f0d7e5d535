// cache — общий кэш сервиса поверх Redis. Через него проходит вся
// межзапросная координация: счётчики rate-лимитера, коды подтверждения
// и маркеры повторной отправки.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache — минимальный контракт общего кэша.
//
// Все операции — одиночные логические действия над хранилищем:
// SetIfAbsent* и DeleteIfEquals обязаны быть атомарными относительно
// конкурентных вызовов для одного ключа.
type Cache interface {
	// Get возвращает значение и признак его наличия.
	Get(ctx context.Context, key string) (string, bool, error)
	// SetWithTTL безусловно записывает значение, заменяя TTL.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	// SetIfAbsent записывает значение, только если ключа ещё нет.
	// Возвращает true, если запись создана этим вызовом.
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)
	// SetIfAbsentWithTTL — то же, но с TTL.
	SetIfAbsentWithTTL(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// DeleteIfEquals удаляет ключ, только если его значение равно expected.
	// Возвращает true, если запись существовала, совпала и была удалена.
	DeleteIfEquals(ctx context.Context, key, expected string) (bool, error)
	// Close закрывает клиент.
	Close() error
}

type redisCache struct {
	rdb *redis.Client
}

// Сравнение и удаление должны быть одним шагом, иначе конкурентная
// проверка кода подтверждения может пройти дважды.
var deleteIfEqualsScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
func NewRedisCache(ctx context.Context, redisURL string) (Cache, error) {
	const op = "cache.NewRedisCache"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &redisCache{rdb: rdb}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "cache.Get"

	value, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}

		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	return value, true, nil
}

func (c *redisCache) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "cache.SetWithTTL"

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *redisCache) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	const op = "cache.SetIfAbsent"

	created, err := c.rdb.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (c *redisCache) SetIfAbsentWithTTL(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	const op = "cache.SetIfAbsentWithTTL"

	created, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (c *redisCache) DeleteIfEquals(ctx context.Context, key, expected string) (bool, error) {
	const op = "cache.DeleteIfEquals"

	deleted, err := deleteIfEqualsScript.Run(ctx, c.rdb, []string{key}, expected).Int()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return deleted == 1, nil
}

func (c *redisCache) Close() error { return c.rdb.Close() }
