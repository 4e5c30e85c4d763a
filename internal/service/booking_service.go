package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kortovik/internal/database"
	"kortovik/internal/domain"
	"kortovik/internal/events"
	"kortovik/internal/metrics"
	"kortovik/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingService struct {
	repo      domain.Repository
	allocator *Allocator
	policy    *Policy
	eventBus  domain.EventPublisher
	worker    domain.ReportWorker
	cache     domain.SlotCache
	logger    *zerolog.Logger
}

func NewBookingService(
	repo domain.Repository,
	allocator *Allocator,
	policy *Policy,
	eventBus domain.EventPublisher,
	worker domain.ReportWorker,
	cache domain.SlotCache,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		allocator: allocator,
		policy:    policy,
		eventBus:  eventBus,
		worker:    worker,
		cache:     cache,
		logger:    logger,
	}
}

// NewBookingNumber формирует номер вида BOOK-20260901-A1B2.
func NewBookingNumber(date time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:4])
	return fmt.Sprintf("%s-%s-%s", models.BookingNumberPrefix, date.Format("20060102"), suffix)
}

// CheckAvailability проверяет интервал и возвращает расчет стоимости
// без создания брони.
func (s *BookingService) CheckAvailability(ctx context.Context, courtID int64, date time.Time, start models.ClockTime, hours int) (*models.Quote, error) {
	return s.allocator.Quote(ctx, courtID, date, start, hours)
}

// CreateBooking проводит заявку через все проверки и создает бронь со
// слотами. Цена фиксируется из каталога на момент создания.
func (s *BookingService) CreateBooking(ctx context.Context, req *models.Booking) (*models.Booking, error) {
	if req.ParticipantsCount == 0 {
		req.ParticipantsCount = models.DefaultParticipants
	}
	if err := s.policy.CheckParticipants(req.ParticipantsCount); err != nil {
		return nil, err
	}

	court, err := s.repo.GetCourt(req.CourtID)
	if err != nil {
		return nil, err
	}

	// Один снимок площадки на весь запрос: и проверки, и цена
	quote, err := s.allocator.quoteFor(ctx, court, req.Date, req.StartTime, req.Hours)
	if err != nil {
		return nil, err
	}

	booking := *req
	booking.CourtName = court.Name
	booking.BookingNumber = NewBookingNumber(req.Date)
	booking.EndTime = quote.EndTime
	booking.PricePerHour = court.HourlyPrice()
	booking.TotalPrice = quote.TotalPrice.Amount
	booking.DepositAmount = quote.Deposit.Amount
	booking.Currency = models.DefaultCurrency
	booking.Status = models.StatusPending
	booking.PaymentStatus = models.PaymentPending

	if err := s.repo.CreateBookingWithSlots(ctx, &booking); err != nil {
		if errors.Is(err, database.ErrSlotConflict) {
			metrics.IncSlotConflict()
		}
		return nil, err
	}

	metrics.IncBookingCreated(booking.CourtName)
	s.invalidateDay(ctx, booking.CourtID, booking.Date)
	s.publishEvent(events.EventBookingCreated, &booking, "", 0)
	s.enqueueReport(ctx, &booking)

	s.logger.Info().
		Str("booking_number", booking.BookingNumber).
		Int64("court_id", booking.CourtID).
		Str("date", booking.Date.Format("2006-01-02")).
		Str("interval", booking.StartTime.String()+"-"+booking.EndTime.String()).
		Msg("booking created")

	return &booking, nil
}

// ConfirmBooking менеджер подтверждает ожидающую заявку.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, version, managerID int64) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != models.StatusPending {
		return database.ErrInvalidStatusTransition
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, bookingID, version, models.StatusConfirmed); err != nil {
		return err
	}

	metrics.IncStatusChange(models.StatusConfirmed)
	if updated, err := s.repo.GetBooking(ctx, bookingID); err == nil {
		s.publishEvent(events.EventBookingConfirmed, updated, "", managerID)
		s.enqueueReport(ctx, updated)
	}
	return nil
}

// RejectBooking менеджер отклоняет ожидающую заявку, слоты
// освобождаются.
func (s *BookingService) RejectBooking(ctx context.Context, bookingID, version, managerID int64, reason string) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != models.StatusPending {
		return database.ErrInvalidStatusTransition
	}

	if err := s.repo.ReleaseBookingWithSlots(ctx, bookingID, version, models.StatusRejected, reason); err != nil {
		return err
	}

	metrics.IncStatusChange(models.StatusRejected)
	s.invalidateDay(ctx, booking.CourtID, booking.Date)
	if updated, err := s.repo.GetBooking(ctx, bookingID); err == nil {
		s.publishEvent(events.EventBookingRejected, updated, reason, managerID)
		s.enqueueReport(ctx, updated)
	}
	return nil
}

// CancelBooking пользователь отменяет свою бронь не позже чем за
// установленный срок до начала.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, version, userID int64, reason string) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if userID != 0 && booking.UserID != userID {
		return database.ErrBookingNotFound
	}
	if !booking.IsActive() {
		return database.ErrInvalidStatusTransition
	}
	if err := s.policy.CheckCancellable(booking); err != nil {
		return err
	}

	if err := s.repo.ReleaseBookingWithSlots(ctx, bookingID, version, models.StatusCancelled, reason); err != nil {
		return err
	}

	metrics.IncStatusChange(models.StatusCancelled)
	s.invalidateDay(ctx, booking.CourtID, booking.Date)
	if updated, err := s.repo.GetBooking(ctx, bookingID); err == nil {
		s.publishEvent(events.EventBookingCancelled, updated, reason, userID)
		s.enqueueReport(ctx, updated)
	}
	return nil
}

// MarkDepositPaid фиксирует поступление депозита.
func (s *BookingService) MarkDepositPaid(ctx context.Context, bookingID, version int64) error {
	return s.updatePayment(ctx, bookingID, version, models.PaymentPartial)
}

// MarkPaid фиксирует полную оплату.
func (s *BookingService) MarkPaid(ctx context.Context, bookingID, version int64) error {
	return s.updatePayment(ctx, bookingID, version, models.PaymentPaid)
}

func (s *BookingService) updatePayment(ctx context.Context, bookingID, version int64, paymentStatus string) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.IsActive() {
		return database.ErrInvalidStatusTransition
	}

	if err := s.repo.UpdatePaymentStatusWithVersion(ctx, bookingID, version, paymentStatus); err != nil {
		return err
	}

	if updated, err := s.repo.GetBooking(ctx, bookingID); err == nil {
		s.publishEvent(events.EventPaymentUpdated, updated, "", 0)
	}
	return nil
}

// CompleteExpired переводит прошедшие подтвержденные брони в completed.
// Запускается периодически из воркера.
func (s *BookingService) CompleteExpired(ctx context.Context) (int, error) {
	ids, err := s.repo.CompleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		metrics.IncStatusChange(models.StatusCompleted)
		if booking, err := s.repo.GetBooking(ctx, id); err == nil {
			s.publishEvent(events.EventBookingCompleted, booking, "", 0)
			s.enqueueReport(ctx, booking)
		}
	}
	return len(ids), nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error) {
	return s.repo.GetBookingByNumber(ctx, number)
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.repo.ListUserBookings(ctx, userID)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return s.repo.ListBookingsByDateRange(ctx, start, end)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, reason string, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.FromBooking(booking)
	payload.Reason = reason
	payload.ChangedByID = changedByID

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueReport(ctx context.Context, booking *models.Booking) {
	if s.worker == nil {
		return
	}

	if err := s.worker.EnqueueTask(ctx, models.TaskRegisterUpdate, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("report enqueue error")
	}
}

func (s *BookingService) invalidateDay(ctx context.Context, courtID int64, date time.Time) {
	if s.cache == nil {
		return
	}

	if err := s.cache.InvalidateDaySlots(ctx, courtID, date); err != nil {
		s.logger.Warn().Err(err).Int64("court_id", courtID).Msg("slot cache invalidation failed")
	}
}
