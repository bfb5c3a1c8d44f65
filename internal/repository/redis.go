package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payandpark/internal/config"
	"payandpark/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisSlotLocker struct {
	client  *redis.Client
	ttl     time.Duration
	wait    time.Duration
	backoff BackoffPolicy
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	client := redis.NewClient(options)

	return client
}

func NewRedisSlotLocker(client *redis.Client, ttl, wait time.Duration) *RedisSlotLocker {
	return &RedisSlotLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
		backoff: BackoffPolicy{
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     200 * time.Millisecond,
		},
	}
}

func slotLockKey(slotID int64) string {
	return fmt.Sprintf("slot_lock:%d", slotID)
}

func (l *RedisSlotLocker) Lock(ctx context.Context, slotID int64) (func(), error) {
	if l.client == nil {
		return nil, errors.New("redis client is nil")
	}

	key := slotLockKey(slotID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for attempt := 1; ; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire slot lock in redis: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("parking slot %d: %w", slotID, domain.ErrSlotBusy)
		}

		timer := time.NewTimer(l.backoff.NextDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisSlotLocker) release(key, token string) {
	// The caller's ctx may already be cancelled; the lock must still go.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
