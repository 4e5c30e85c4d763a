package service

import (
	"context"
	"io"
	"testing"
	"time"

	"kortovik/internal/events"
	"kortovik/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCourtService(repo *mockRepo, cache *mockCache, bus *mockEventBus) *CourtService {
	logger := zerolog.New(io.Discard)
	return NewCourtService(repo, cache, bus, time.UTC, &logger)
}

func TestGetDaySchedule(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	t.Run("CacheMissBuildsFromDB", func(t *testing.T) {
		repo := new(mockRepo)
		cache := new(mockCache)
		svc := newCourtService(repo, cache, new(mockEventBus))

		bookingID := int64(7)
		price := models.Kopecks(150000)
		repo.On("GetCourt", int64(1)).Return(testCourt(), nil)
		cache.On("GetDaySlots", ctx, int64(1), date).Return(nil, nil)
		repo.On("ListDaySlots", ctx, int64(1), date).Return([]models.TimeSlot{
			{CourtID: 1, Date: date, StartTime: models.MustClock("10:00"), EndTime: models.MustClock("11:00"), IsBooked: true, BookingID: &bookingID, Price: &price},
			{CourtID: 1, Date: date, StartTime: models.MustClock("14:00"), EndTime: models.MustClock("15:00"), IsBlocked: true},
		}, nil)
		cache.On("SetDaySlots", ctx, int64(1), date, mock.Anything).Return(nil)

		views, err := svc.GetDaySchedule(ctx, 1, date)
		require.NoError(t, err)

		// Сетка с 08:00 до 22:00, 14 часов
		require.Len(t, views, 14)
		assert.Equal(t, models.MustClock("08:00"), views[0].StartTime)
		assert.True(t, views[0].Available)

		booked := views[2]
		assert.Equal(t, models.MustClock("10:00"), booked.StartTime)
		assert.False(t, booked.Available)
		assert.True(t, booked.Booked)
		assert.False(t, booked.Blocked)

		blocked := views[6]
		assert.Equal(t, models.MustClock("14:00"), blocked.StartTime)
		assert.False(t, blocked.Available)
		assert.True(t, blocked.Blocked)

		cache.AssertExpectations(t)
	})

	t.Run("CacheHitSkipsDB", func(t *testing.T) {
		repo := new(mockRepo)
		cache := new(mockCache)
		svc := newCourtService(repo, cache, new(mockEventBus))

		cached := []models.SlotView{{StartTime: models.MustClock("08:00"), Available: true}}
		repo.On("GetCourt", int64(1)).Return(testCourt(), nil)
		cache.On("GetDaySlots", ctx, int64(1), date).Return(cached, nil)

		views, err := svc.GetDaySchedule(ctx, 1, date)
		require.NoError(t, err)
		assert.Equal(t, cached, views)
		repo.AssertNotCalled(t, "ListDaySlots", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBlockUnblockSlots(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	repo := new(mockRepo)
	cache := new(mockCache)
	bus := new(mockEventBus)
	svc := newCourtService(repo, cache, bus)

	repo.On("GetCourt", int64(1)).Return(testCourt(), nil)
	repo.On("BlockSlots", ctx, int64(1), date, models.MustClock("12:00"), models.MustClock("14:00")).Return(nil)
	repo.On("UnblockSlots", ctx, int64(1), date, models.MustClock("12:00"), models.MustClock("14:00")).Return(nil)
	cache.On("InvalidateDaySlots", ctx, int64(1), date).Return(nil).Twice()
	bus.On("PublishJSON", events.EventSlotsBlocked, mock.Anything).Return(nil).Once()
	bus.On("PublishJSON", events.EventSlotsUnblocked, mock.Anything).Return(nil).Once()

	require.NoError(t, svc.BlockSlots(ctx, 1, date, models.MustClock("12:00"), models.MustClock("14:00"), 500))
	require.NoError(t, svc.UnblockSlots(ctx, 1, date, models.MustClock("12:00"), models.MustClock("14:00"), 500))

	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
	cache.AssertExpectations(t)
}
