package database

import "errors"

// Сентинельные ошибки доменного контракта. Сервисный слой и API
// различают их через errors.Is.
var (
	ErrCourtNotFound             = errors.New("court not found")
	ErrCourtUnavailable          = errors.New("court is not available for booking")
	ErrBookingNotFound           = errors.New("booking not found")
	ErrDateOutOfRange            = errors.New("date is outside the booking window")
	ErrDurationOutOfRange        = errors.New("duration is outside court limits")
	ErrOutsideWorkingHours       = errors.New("interval is outside working hours")
	ErrSlotConflict              = errors.New("interval overlaps an existing booking")
	ErrSlotBlocked               = errors.New("interval contains a blocked slot")
	ErrCancellationWindowExpired = errors.New("cancellation window has expired")
	ErrInvalidStatusTransition   = errors.New("invalid booking status transition")
	ErrInvalidParticipants       = errors.New("participants count is out of range")
	ErrConcurrentModification    = errors.New("booking was modified concurrently")
)
