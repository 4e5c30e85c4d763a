package service

import (
	"context"
	"time"

	"kortovik/internal/domain"
	"kortovik/internal/events"
	"kortovik/internal/models"

	"github.com/rs/zerolog"
)

// CourtService каталог площадок и витрина расписания.
type CourtService struct {
	repo     domain.Repository
	cache    domain.SlotCache
	eventBus domain.EventPublisher
	loc      *time.Location
	logger   *zerolog.Logger
}

func NewCourtService(repo domain.Repository, cache domain.SlotCache, eventBus domain.EventPublisher, loc *time.Location, logger *zerolog.Logger) *CourtService {
	if loc == nil {
		loc = time.UTC
	}
	return &CourtService{repo: repo, cache: cache, eventBus: eventBus, loc: loc, logger: logger}
}

func (s *CourtService) ListCourts(ctx context.Context) []models.Court {
	return s.repo.ListCourts()
}

func (s *CourtService) GetCourt(ctx context.Context, id int64) (models.Court, error) {
	return s.repo.GetCourt(id)
}

// GetDaySchedule почасовая сетка площадки на дату. Сначала пробуем
// кэш, при промахе строим из БД и кладем обратно. Кэш только для
// отображения, решения о бронировании всегда принимает БД.
func (s *CourtService) GetDaySchedule(ctx context.Context, courtID int64, date time.Time) ([]models.SlotView, error) {
	court, err := s.repo.GetCourt(courtID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, err := s.cache.GetDaySlots(ctx, courtID, date); err == nil && cached != nil {
			return cached, nil
		}
	}

	slots, err := s.repo.ListDaySlots(ctx, courtID, date)
	if err != nil {
		return nil, err
	}

	views := buildDayViews(&court, slots)

	if s.cache != nil {
		if err := s.cache.SetDaySlots(ctx, courtID, date, views); err != nil {
			s.logger.Warn().Err(err).Int64("court_id", courtID).Msg("slot cache write failed")
		}
	}
	return views, nil
}

// buildDayViews достраивает свободные часы между занятыми записями.
func buildDayViews(court *models.Court, slots []models.TimeSlot) []models.SlotView {
	occupied := make(map[models.ClockTime]models.TimeSlot, len(slots))
	for _, slot := range slots {
		occupied[slot.StartTime] = slot
	}

	hourly := court.HourlyPrice()
	var views []models.SlotView
	for start := court.OpeningTime; start < court.ClosingTime; start += models.SlotDurationMinutes {
		view := models.SlotView{
			StartTime: start,
			EndTime:   start + models.SlotDurationMinutes,
			Available: true,
			Price:     models.NewMoney(hourly),
		}
		if slot, ok := occupied[start]; ok {
			view.Available = false
			view.Booked = slot.IsBooked
			view.Blocked = slot.IsBlocked
			if slot.Price != nil {
				view.Price = models.NewMoney(*slot.Price)
			}
		}
		views = append(views, view)
	}
	return views
}

// BlockSlots менеджер закрывает интервал от бронирования.
func (s *CourtService) BlockSlots(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime, managerID int64) error {
	if _, err := s.repo.GetCourt(courtID); err != nil {
		return err
	}

	if err := s.repo.BlockSlots(ctx, courtID, date, start, end); err != nil {
		return err
	}

	s.invalidateDay(ctx, courtID, date)
	s.publishSlotEvent(events.EventSlotsBlocked, courtID, date, start, end, managerID)
	return nil
}

// UnblockSlots снимает блокировку интервала.
func (s *CourtService) UnblockSlots(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime, managerID int64) error {
	if _, err := s.repo.GetCourt(courtID); err != nil {
		return err
	}

	if err := s.repo.UnblockSlots(ctx, courtID, date, start, end); err != nil {
		return err
	}

	s.invalidateDay(ctx, courtID, date)
	s.publishSlotEvent(events.EventSlotsUnblocked, courtID, date, start, end, managerID)
	return nil
}

func (s *CourtService) publishSlotEvent(eventType string, courtID int64, date time.Time, start, end models.ClockTime, managerID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.SlotEventPayload{
		CourtID:   courtID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		ManagerID: managerID,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("court_id", courtID).Msg("publish event error")
	}
}

func (s *CourtService) invalidateDay(ctx context.Context, courtID int64, date time.Time) {
	if s.cache == nil {
		return
	}

	if err := s.cache.InvalidateDaySlots(ctx, courtID, date); err != nil {
		s.logger.Warn().Err(err).Int64("court_id", courtID).Msg("slot cache invalidation failed")
	}
}
