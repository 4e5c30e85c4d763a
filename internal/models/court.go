package models

import "time"

// Court волейбольная площадка. Каталог ведет внешняя подсистема
// модерации, ядро бронирования площадки не изменяет.
type Court struct {
	ID                 int64     `yaml:"id" json:"id"`
	Name               string    `yaml:"name" json:"name"`
	City               string    `yaml:"city" json:"city"`
	Address            string    `yaml:"address" json:"address"`
	Surface            string    `yaml:"surface" json:"surface,omitempty"`
	OpeningTime        ClockTime `yaml:"opening_time" json:"opening_time"`
	ClosingTime        ClockTime `yaml:"closing_time" json:"closing_time"`
	IsFree             bool      `yaml:"is_free" json:"is_free"`
	PricePerHour       Kopecks   `yaml:"price_per_hour" json:"price_per_hour"`
	MinBookingHours    int       `yaml:"min_booking_hours" json:"min_booking_hours"`
	MaxBookingHours    int       `yaml:"max_booking_hours" json:"max_booking_hours"`
	AdvanceBookingDays int       `yaml:"advance_booking_days" json:"advance_booking_days"`
	BookingEnabled     bool      `yaml:"booking_enabled" json:"booking_enabled"`
	IsActive           bool      `yaml:"is_active" json:"is_active"`
	CreatedAt          time.Time `yaml:"-" json:"created_at"`
	UpdatedAt          time.Time `yaml:"-" json:"updated_at"`
}

// HourlyPrice цена часа с учетом флага бесплатной площадки:
// бесплатная площадка стоит 0 независимо от записанной цены.
func (c *Court) HourlyPrice() Kopecks {
	if c.IsFree {
		return 0
	}
	return c.PricePerHour
}
