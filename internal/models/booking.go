package models

import "time"

// Booking бронирование площадки на непрерывный интервал одной даты.
type Booking struct {
	ID            int64  `json:"id"`
	BookingNumber string `json:"booking_number"`
	CourtID       int64  `json:"court_id"`
	CourtName     string `json:"court_name"`
	UserID        int64  `json:"user_id"`
	UserName      string `json:"user_name"`

	Date      time.Time `json:"date"`
	StartTime ClockTime `json:"start_time"`
	EndTime   ClockTime `json:"end_time"`
	Hours     int       `json:"hours"`

	ParticipantsCount int `json:"participants_count"`

	// Цена фиксируется на момент создания; последующие изменения
	// цены площадки на бронь не влияют.
	PricePerHour  Kopecks `json:"price_per_hour"`
	TotalPrice    Kopecks `json:"total_price"`
	DepositAmount Kopecks `json:"deposit_amount"`
	Currency      string  `json:"currency"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	ContactName     string `json:"contact_name"`
	ContactPhone    string `json:"contact_phone"`
	ContactEmail    string `json:"contact_email,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`
	CancelReason    string `json:"cancel_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	Version     int64      `json:"version"`
}

// StartInstant момент начала брони в зоне loc.
func (b *Booking) StartInstant(loc *time.Location) time.Time {
	return b.StartTime.At(b.Date, loc)
}

// IsActive бронь занимает интервал (учитывается при проверке пересечений).
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// ContactInfo контактные данные заявки на бронирование.
type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}
