package models

import "time"

// TimeSlot почасовая запись занятости площадки. На каждый час брони
// создается одна запись; (court_id, date, start_time) уникальны.
type TimeSlot struct {
	ID          int64     `json:"id"`
	CourtID     int64     `json:"court_id"`
	Date        time.Time `json:"date"`
	StartTime   ClockTime `json:"start_time"`
	EndTime     ClockTime `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	IsBooked    bool      `json:"is_booked"`
	IsBlocked   bool      `json:"is_blocked"`
	BookingID   *int64    `json:"booking_id,omitempty"`
	Price       *Kopecks  `json:"price,omitempty"`
}

// SlotView почасовой дескриптор для витрины расписания. Не является
// источником истины для проверки конфликтов.
type SlotView struct {
	StartTime ClockTime `json:"start_time"`
	EndTime   ClockTime `json:"end_time"`
	Available bool      `json:"available"`
	Booked    bool      `json:"booked"`
	Blocked   bool      `json:"blocked"`
	Price     Money     `json:"price"`
}

// HourPrice цена одного часа в подтвержденном интервале.
type HourPrice struct {
	StartTime ClockTime `json:"start_time"`
	Price     Money     `json:"price"`
}

// Quote результат успешной проверки доступности: подтвержденный
// интервал, поразрядная цена и итог.
type Quote struct {
	CourtID    int64       `json:"court_id"`
	Date       time.Time   `json:"date"`
	StartTime  ClockTime   `json:"start_time"`
	EndTime    ClockTime   `json:"end_time"`
	Hours      int         `json:"hours"`
	Breakdown  []HourPrice `json:"breakdown"`
	TotalPrice Money       `json:"total_price"`
	Deposit    Money       `json:"deposit"`
}
