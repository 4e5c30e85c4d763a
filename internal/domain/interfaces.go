package domain

import (
	"context"
	"time"

	"kortovik/internal/models"
)

type Repository interface {
	GetCourt(courtID int64) (models.Court, error)
	ListCourts() []models.Court
	SetCourts(courts []models.Court)

	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error)
	CreateBookingWithSlots(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error
	UpdatePaymentStatusWithVersion(ctx context.Context, id, version int64, paymentStatus string) error
	ReleaseBookingWithSlots(ctx context.Context, id, version int64, status, reason string) error
	ListBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	ListCourtBookings(ctx context.Context, courtID int64, date time.Time) ([]*models.Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	CompleteExpired(ctx context.Context, now time.Time) ([]int64, error)

	ListDaySlots(ctx context.Context, courtID int64, date time.Time) ([]models.TimeSlot, error)
	BlockSlots(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) error
	UnblockSlots(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) error
	HasOverlap(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) (bool, error)
	HasBlocked(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) (bool, error)
}

// SlotCache кэш витрины расписания. Не является источником истины,
// конфликты всегда решает БД.
type SlotCache interface {
	GetDaySlots(ctx context.Context, courtID int64, date time.Time) ([]models.SlotView, error)
	SetDaySlots(ctx context.Context, courtID int64, date time.Time, slots []models.SlotView) error
	InvalidateDaySlots(ctx context.Context, courtID int64, date time.Time) error
	CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// RegisterWriter пишет реестр бронирований в файл отчета.
type RegisterWriter interface {
	WriteRegister(ctx context.Context, path string, bookings []*models.Booking) error
}

type ReportWorker interface {
	EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, req *models.Booking) (*models.Booking, error)
	CheckAvailability(ctx context.Context, courtID int64, date time.Time, start models.ClockTime, hours int) (*models.Quote, error)
	ConfirmBooking(ctx context.Context, bookingID, version, managerID int64) error
	RejectBooking(ctx context.Context, bookingID, version, managerID int64, reason string) error
	CancelBooking(ctx context.Context, bookingID, version, userID int64, reason string) error
	MarkDepositPaid(ctx context.Context, bookingID, version int64) error
	MarkPaid(ctx context.Context, bookingID, version int64) error
	CompleteExpired(ctx context.Context) (int, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

type CourtService interface {
	ListCourts(ctx context.Context) []models.Court
	GetCourt(ctx context.Context, id int64) (models.Court, error)
	GetDaySchedule(ctx context.Context, courtID int64, date time.Time) ([]models.SlotView, error)
	BlockSlots(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime, managerID int64) error
	UnblockSlots(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime, managerID int64) error
}
