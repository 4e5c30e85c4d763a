package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

const (
	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentPartial   = "partial"
	PaymentRefunded  = "refunded"
	PaymentCancelled = "cancelled"
)

const (
	// DefaultCurrency код валюты всех цен в системе
	DefaultCurrency = "RUB"

	// DefaultDepositRate доля депозита от полной стоимости для платных площадок
	DefaultDepositRate = 0.30

	// CancellationNoticeHours минимальное время до начала брони для отмены
	CancellationNoticeHours = 24

	// SlotDurationMinutes длительность одного слота
	SlotDurationMinutes = 60

	// BookingNumberPrefix префикс номера брони
	BookingNumberPrefix = "BOOK"
)

const (
	// MinParticipants и MaxParticipants границы количества участников
	MinParticipants     = 2
	MaxParticipants     = 24
	DefaultParticipants = 6
)

const (
	// DaySlotsCacheTTL время жизни кэша слотов на день в Redis
	DaySlotsCacheTTL = 5 * 60 // 5 минут в секундах

	// RateLimitRequests количество запросов в окне
	RateLimitRequests = 30

	// RateLimitWindow окно ограничения частоты запросов
	RateLimitWindow = 60 // 1 минута в секундах

	// WorkerQueueSize размер очереди воркера отчетов
	WorkerQueueSize = 128
)

// ActiveBookingStatuses статусы, учитываемые при проверке пересечений
var ActiveBookingStatuses = []string{StatusPending, StatusConfirmed}
