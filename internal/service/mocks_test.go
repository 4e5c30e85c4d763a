package service

import (
	"context"
	"time"

	"kortovik/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetCourt(courtID int64) (models.Court, error) {
	args := m.Called(courtID)
	return args.Get(0).(models.Court), args.Error(1)
}
func (m *mockRepo) ListCourts() []models.Court {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Court)
}
func (m *mockRepo) SetCourts(courts []models.Court) { m.Called(courts) }
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) CreateBookingWithSlots(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) UpdateBookingStatusWithVersion(ctx context.Context, id, v int64, s string) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockRepo) UpdatePaymentStatusWithVersion(ctx context.Context, id, v int64, s string) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockRepo) ReleaseBookingWithSlots(ctx context.Context, id, v int64, s, reason string) error {
	return m.Called(ctx, id, v, s, reason).Error(0)
}
func (m *mockRepo) ListBookingsByDateRange(ctx context.Context, s, e time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ListCourtBookings(ctx context.Context, courtID int64, date time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, courtID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) CompleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}
func (m *mockRepo) ListDaySlots(ctx context.Context, courtID int64, date time.Time) ([]models.TimeSlot, error) {
	args := m.Called(ctx, courtID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TimeSlot), args.Error(1)
}
func (m *mockRepo) BlockSlots(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) error {
	return m.Called(ctx, courtID, date, start, end).Error(0)
}
func (m *mockRepo) UnblockSlots(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) error {
	return m.Called(ctx, courtID, date, start, end).Error(0)
}
func (m *mockRepo) HasOverlap(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) (bool, error) {
	args := m.Called(ctx, courtID, date, start, end)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) HasBlocked(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) (bool, error) {
	args := m.Called(ctx, courtID, date, start, end)
	return args.Bool(0), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTask(ctx context.Context, tt string, b *models.Booking) error {
	return m.Called(ctx, tt, b).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetDaySlots(ctx context.Context, courtID int64, date time.Time) ([]models.SlotView, error) {
	args := m.Called(ctx, courtID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SlotView), args.Error(1)
}
func (m *mockCache) SetDaySlots(ctx context.Context, courtID int64, date time.Time, slots []models.SlotView) error {
	return m.Called(ctx, courtID, date, slots).Error(0)
}
func (m *mockCache) InvalidateDaySlots(ctx context.Context, courtID int64, date time.Time) error {
	return m.Called(ctx, courtID, date).Error(0)
}
func (m *mockCache) CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, clientID, limit, window)
	return args.Bool(0), args.Error(1)
}

// testCourt активная платная площадка с типовыми лимитами.
func testCourt() models.Court {
	return models.Court{
		ID:                 1,
		Name:               "Центральный корт",
		City:               "Москва",
		OpeningTime:        models.MustClock("08:00"),
		ClosingTime:        models.MustClock("22:00"),
		PricePerHour:       150000,
		MinBookingHours:    1,
		MaxBookingHours:    3,
		AdvanceBookingDays: 30,
		BookingEnabled:     true,
		IsActive:           true,
	}
}

func fixedPolicy(now time.Time) *Policy {
	p := NewPolicy(time.UTC, models.CancellationNoticeHours)
	p.now = func() time.Time { return now }
	return p
}
