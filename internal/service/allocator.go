package service

import (
	"context"
	"time"

	"kortovik/internal/database"
	"kortovik/internal/domain"
	"kortovik/internal/metrics"
	"kortovik/internal/models"
)

// Allocator проверяет запрошенный интервал против правил площадки и
// текущей занятости. Порядок проверок фиксирован: правила площадки
// идут раньше обращений к расписанию, чтобы не ходить в БД зря.
type Allocator struct {
	repo        domain.Repository
	policy      *Policy
	depositRate float64
}

func NewAllocator(repo domain.Repository, policy *Policy, depositRate float64) *Allocator {
	if depositRate <= 0 || depositRate > 1 {
		depositRate = models.DefaultDepositRate
	}
	return &Allocator{repo: repo, policy: policy, depositRate: depositRate}
}

// Quote полная проверка доступности интервала. При успехе возвращает
// расчет стоимости, при отказе одну из сентинельных ошибок.
func (a *Allocator) Quote(ctx context.Context, courtID int64, date time.Time, start models.ClockTime, hours int) (*models.Quote, error) {
	court, err := a.repo.GetCourt(courtID)
	if err != nil {
		return nil, err
	}
	return a.quoteFor(ctx, court, date, start, hours)
}

// quoteFor проверяет интервал против уже прочитанного снимка площадки.
// Валидация и цена считаются по одному снимку, перечитывание каталога
// между шагами исключено.
func (a *Allocator) quoteFor(ctx context.Context, court models.Court, date time.Time, start models.ClockTime, hours int) (*models.Quote, error) {
	if err := a.policy.CheckCourtUsable(court); err != nil {
		metrics.IncRejection("court_unavailable")
		return nil, err
	}
	if err := a.policy.CheckDate(court, date); err != nil {
		metrics.IncRejection("date_out_of_range")
		return nil, err
	}
	if err := a.policy.CheckDuration(court, hours); err != nil {
		metrics.IncRejection("duration_out_of_range")
		return nil, err
	}
	end, err := a.policy.CheckWorkingHours(court, start, hours)
	if err != nil {
		metrics.IncRejection("outside_working_hours")
		return nil, err
	}

	overlap, err := a.repo.HasOverlap(ctx, court.ID, date, start, end)
	if err != nil {
		return nil, err
	}
	if overlap {
		metrics.IncRejection("slot_conflict")
		return nil, database.ErrSlotConflict
	}

	blocked, err := a.repo.HasBlocked(ctx, court.ID, date, start, end)
	if err != nil {
		return nil, err
	}
	if blocked {
		metrics.IncRejection("slot_blocked")
		return nil, database.ErrSlotBlocked
	}

	return a.buildQuote(&court, date, start, end, hours), nil
}

func (a *Allocator) buildQuote(court *models.Court, date time.Time, start, end models.ClockTime, hours int) *models.Quote {
	hourly := court.HourlyPrice()

	breakdown := make([]models.HourPrice, 0, hours)
	for hourStart := start; hourStart < end; hourStart += models.SlotDurationMinutes {
		breakdown = append(breakdown, models.HourPrice{
			StartTime: hourStart,
			Price:     models.NewMoney(hourly),
		})
	}

	total := hourly * models.Kopecks(hours)
	deposit := models.Kopecks(0)
	if !court.IsFree {
		deposit = models.DepositFor(total, a.depositRate)
	}

	return &models.Quote{
		CourtID:    court.ID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Hours:      hours,
		Breakdown:  breakdown,
		TotalPrice: models.NewMoney(total),
		Deposit:    models.NewMoney(deposit),
	}
}

// DepositRate текущая ставка депозита.
func (a *Allocator) DepositRate() float64 {
	return a.depositRate
}
