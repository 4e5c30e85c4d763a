package service

import (
	"time"

	"kortovik/internal/database"
	"kortovik/internal/models"
)

// Policy правила площадки: окно бронирования, длительность, рабочие
// часы и срок отмены. Все проверки идут от снимка площадки, взятого
// один раз на запрос.
type Policy struct {
	loc         *time.Location
	noticeHours int
	now         func() time.Time
}

func NewPolicy(loc *time.Location, noticeHours int) *Policy {
	if loc == nil {
		loc = time.UTC
	}
	if noticeHours <= 0 {
		noticeHours = models.CancellationNoticeHours
	}
	return &Policy{loc: loc, noticeHours: noticeHours, now: time.Now}
}

func (p *Policy) today() time.Time {
	now := p.now().In(p.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.loc)
}

// CheckCourtUsable площадка существует в каталоге, активна и открыта
// для бронирования.
func (p *Policy) CheckCourtUsable(court models.Court) error {
	if !court.IsActive || !court.BookingEnabled {
		return database.ErrCourtUnavailable
	}
	return nil
}

// CheckDate дата не в прошлом и не дальше горизонта бронирования.
func (p *Policy) CheckDate(court models.Court, date time.Time) error {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, p.loc)
	today := p.today()

	if day.Before(today) {
		return database.ErrDateOutOfRange
	}
	if day.After(today.AddDate(0, 0, court.AdvanceBookingDays)) {
		return database.ErrDateOutOfRange
	}
	return nil
}

// CheckDuration длительность в часах внутри лимитов площадки.
func (p *Policy) CheckDuration(court models.Court, hours int) error {
	if hours < court.MinBookingHours || hours > court.MaxBookingHours {
		return database.ErrDurationOutOfRange
	}
	return nil
}

// CheckWorkingHours интервал целиком внутри рабочих часов. Возвращает
// время окончания.
func (p *Policy) CheckWorkingHours(court models.Court, start models.ClockTime, hours int) (models.ClockTime, error) {
	end, ok := start.AddHours(hours)
	if !ok {
		// Интервал через полночь не поддерживается
		return 0, database.ErrOutsideWorkingHours
	}
	if start < court.OpeningTime || end > court.ClosingTime {
		return 0, database.ErrOutsideWorkingHours
	}
	return end, nil
}

// CheckParticipants количество участников в допустимых границах.
func (p *Policy) CheckParticipants(count int) error {
	if count < models.MinParticipants || count > models.MaxParticipants {
		return database.ErrInvalidParticipants
	}
	return nil
}

// CheckCancellable отмена возможна не позже чем за noticeHours до
// начала брони.
func (p *Policy) CheckCancellable(booking *models.Booking) error {
	start := booking.StartInstant(p.loc)
	deadline := start.Add(-time.Duration(p.noticeHours) * time.Hour)
	if !p.now().In(p.loc).Before(deadline) {
		return database.ErrCancellationWindowExpired
	}
	return nil
}

// IsCancellable мягкий вариант проверки для витрины.
func (p *Policy) IsCancellable(booking *models.Booking) bool {
	if !booking.IsActive() {
		return false
	}
	return p.CheckCancellable(booking) == nil
}
