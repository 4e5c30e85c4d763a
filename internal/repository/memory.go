package repository

import (
	"context"
	"sync"
	"time"

	"kortovik/internal/models"
)

// MemorySlotCache кэш в памяти процесса. Используется как резерв при
// недоступном Redis и в тестах.
type MemorySlotCache struct {
	slots      sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

type daySlotsEntry struct {
	views     []models.SlotView
	expiresAt time.Time
}

func NewMemorySlotCache(ttl time.Duration) *MemorySlotCache {
	if ttl <= 0 {
		ttl = models.DaySlotsCacheTTL * time.Second
	}
	return &MemorySlotCache{ttl: ttl}
}

func (r *MemorySlotCache) GetDaySlots(ctx context.Context, courtID int64, date time.Time) ([]models.SlotView, error) {
	val, ok := r.slots.Load(daySlotsKey(courtID, date))
	if !ok {
		return nil, nil
	}
	entry := val.(*daySlotsEntry)
	if time.Now().After(entry.expiresAt) {
		r.slots.Delete(daySlotsKey(courtID, date))
		return nil, nil
	}
	return entry.views, nil
}

func (r *MemorySlotCache) SetDaySlots(ctx context.Context, courtID int64, date time.Time, slots []models.SlotView) error {
	r.slots.Store(daySlotsKey(courtID, date), &daySlotsEntry{
		views:     slots,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySlotCache) InvalidateDaySlots(ctx context.Context, courtID int64, date time.Time) error {
	r.slots.Delete(daySlotsKey(courtID, date))
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySlotCache) CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(clientID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(clientID, entry)
	return entry.count <= limit, nil
}
