package database

import (
	"context"
	"testing"
	"time"

	"kortovik/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockSlots(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	err := db.BlockSlots(ctx, 1, date, models.MustClock("12:00"), models.MustClock("14:00"))
	require.NoError(t, err)

	slots, err := db.ListDaySlots(ctx, 1, date)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].IsBlocked)
	assert.False(t, slots[0].IsBooked)

	// Бронь поверх блокировки должна отклоняться
	booking := testBooking("13:00", "15:00")
	booking.Date = date
	err = db.CreateBookingWithSlots(ctx, booking)
	assert.ErrorIs(t, err, ErrSlotBlocked)
}

func TestBlockSlotsOverBooking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	booking := testBooking("10:00", "12:00")
	require.NoError(t, db.CreateBookingWithSlots(ctx, booking))

	err := db.BlockSlots(ctx, 1, booking.Date, models.MustClock("11:00"), models.MustClock("13:00"))
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestUnblockSlots(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.BlockSlots(ctx, 1, date, models.MustClock("12:00"), models.MustClock("14:00")))
	require.NoError(t, db.UnblockSlots(ctx, 1, date, models.MustClock("12:00"), models.MustClock("14:00")))

	slots, err := db.ListDaySlots(ctx, 1, date)
	require.NoError(t, err)
	assert.Empty(t, slots)

	booking := testBooking("12:00", "14:00")
	booking.Date = date
	assert.NoError(t, db.CreateBookingWithSlots(ctx, booking))
}

func TestHasOverlap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	booking := testBooking("10:00", "12:00")
	require.NoError(t, db.CreateBookingWithSlots(ctx, booking))

	overlap, err := db.HasOverlap(ctx, 1, booking.Date, models.MustClock("11:00"), models.MustClock("13:00"))
	require.NoError(t, err)
	assert.True(t, overlap)

	// Стыкующийся интервал пересечением не считается
	overlap, err = db.HasOverlap(ctx, 1, booking.Date, models.MustClock("12:00"), models.MustClock("13:00"))
	require.NoError(t, err)
	assert.False(t, overlap)
}
