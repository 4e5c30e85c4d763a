package events

import (
	"encoding/json"
	"sync"
	"time"

	"kortovik/internal/models"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingRejected  = "booking_rejected"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
	EventPaymentUpdated   = "payment_updated"
	EventSlotsBlocked     = "slots_blocked"
	EventSlotsUnblocked   = "slots_unblocked"
)

// BookingEventPayload минимальный снимок брони для подписчиков.
type BookingEventPayload struct {
	BookingID     int64            `json:"booking_id"`
	BookingNumber string           `json:"booking_number"`
	CourtID       int64            `json:"court_id"`
	CourtName     string           `json:"court_name"`
	UserID        int64            `json:"user_id"`
	UserName      string           `json:"user_name"`
	Date          time.Time        `json:"date"`
	StartTime     models.ClockTime `json:"start_time"`
	EndTime       models.ClockTime `json:"end_time"`
	TotalPrice    models.Kopecks   `json:"total_price"`
	Status        string           `json:"status"`
	PaymentStatus string           `json:"payment_status,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	ChangedByID   int64            `json:"changed_by_id,omitempty"`
}

// SlotEventPayload снимок изменения блокировок расписания.
type SlotEventPayload struct {
	CourtID   int64            `json:"court_id"`
	Date      time.Time        `json:"date"`
	StartTime models.ClockTime `json:"start_time"`
	EndTime   models.ClockTime `json:"end_time"`
	ManagerID int64            `json:"manager_id,omitempty"`
}

// FromBooking собирает payload события из брони.
func FromBooking(b *models.Booking) BookingEventPayload {
	return BookingEventPayload{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		CourtID:       b.CourtID,
		CourtName:     b.CourtName,
		UserID:        b.UserID,
		UserName:      b.UserName,
		Date:          b.Date,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		TotalPrice:    b.TotalPrice,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
	}
}

// Event легковесное внутрипроцессное событие.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

type EventHandler func(event *Event) error

// EventBus внутрипроцессный pub/sub.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish уведомляет подписчиков события данного типа.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Обработчики выполняются синхронно, конкурентность на стороне вызывающего
		_ = handler(event)
	}
}

// PublishJSON сериализует payload и публикует событие.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
