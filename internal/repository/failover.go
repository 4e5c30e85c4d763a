package repository

import (
	"context"
	"sync/atomic"
	"time"

	"kortovik/internal/domain"
	"kortovik/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSlotCache переключается на резервный кэш при отказе Redis и
// пробует вернуться на основной раз в минуту.
type FailoverSlotCache struct {
	primary   domain.SlotCache
	fallback  domain.SlotCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSlotCache(primary, fallback domain.SlotCache, logger *zerolog.Logger) *FailoverSlotCache {
	return &FailoverSlotCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSlotCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary slot cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverSlotCache) GetDaySlots(ctx context.Context, courtID int64, date time.Time) ([]models.SlotView, error) {
	if !r.isDown.Load() {
		slots, err := r.primary.GetDaySlots(ctx, courtID, date)
		if err == nil {
			return slots, nil
		}
		r.markDown(err)
	}

	// Пробуем вернуться на основной кэш через минуту
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		slots, err := r.primary.GetDaySlots(ctx, courtID, date)
		if err == nil {
			r.isDown.Store(false)
			return slots, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetDaySlots(ctx, courtID, date)
}

func (r *FailoverSlotCache) SetDaySlots(ctx context.Context, courtID int64, date time.Time, slots []models.SlotView) error {
	if !r.isDown.Load() {
		err := r.primary.SetDaySlots(ctx, courtID, date, slots)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetDaySlots(ctx, courtID, date, slots)
}

func (r *FailoverSlotCache) InvalidateDaySlots(ctx context.Context, courtID int64, date time.Time) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateDaySlots(ctx, courtID, date)
		if err == nil {
			// Резерв чистим тоже, чтобы не отдать устаревшую сетку
			return r.fallback.InvalidateDaySlots(ctx, courtID, date)
		}
		r.markDown(err)
	}

	return r.fallback.InvalidateDaySlots(ctx, courtID, date)
}

func (r *FailoverSlotCache) CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, clientID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, clientID, limit, window)
}
