package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kortovik/internal/config"
	"kortovik/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisSlotCache кэш дневной сетки расписания и счетчики лимитов.
// Источником истины остается SQLite, кэш может отставать или пропадать.
type RedisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает клиент Redis по конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration) *RedisSlotCache {
	if ttl <= 0 {
		ttl = models.DaySlotsCacheTTL * time.Second
	}
	return &RedisSlotCache{client: client, ttl: ttl}
}

func daySlotsKey(courtID int64, date time.Time) string {
	return fmt.Sprintf("day_slots:%d:%s", courtID, date.Format("2006-01-02"))
}

func (r *RedisSlotCache) GetDaySlots(ctx context.Context, courtID int64, date time.Time) ([]models.SlotView, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, daySlotsKey(courtID, date)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day slots from redis: %w", err)
	}

	var slots []models.SlotView
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		return nil, fmt.Errorf("failed to unmarshal day slots: %w", err)
	}
	return slots, nil
}

func (r *RedisSlotCache) SetDaySlots(ctx context.Context, courtID int64, date time.Time, slots []models.SlotView) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to marshal day slots: %w", err)
	}

	if err := r.client.Set(ctx, daySlotsKey(courtID, date), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set day slots in redis: %w", err)
	}
	return nil
}

func (r *RedisSlotCache) InvalidateDaySlots(ctx context.Context, courtID int64, date time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, daySlotsKey(courtID, date)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate day slots: %w", err)
	}
	return nil
}

func (r *RedisSlotCache) CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("rate_limit:%s", clientID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
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
