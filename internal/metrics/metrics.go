package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kortovik",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kortovik",
			Name:      "bookings_created_total",
			Help:      "Created bookings by court.",
		},
		[]string{"court"},
	)

	bookingStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kortovik",
			Name:      "booking_status_changes_total",
			Help:      "Booking status transitions.",
		},
		[]string{"status"},
	)

	allocatorRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kortovik",
			Name:      "allocator_rejections_total",
			Help:      "Slot allocation rejections by reason.",
		},
		[]string{"reason"},
	)

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kortovik",
			Name:      "slot_conflicts_total",
			Help:      "Concurrent slot conflicts caught at commit.",
		},
	)

	reportTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kortovik",
			Name:      "report_tasks_total",
			Help:      "Report queue tasks by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register регистрирует метрики. Повторные вызовы безопасны.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsCreated,
			bookingStatusChanges,
			allocatorRejections,
			slotConflicts,
			reportTasks,
		)
	})
}

// IncHTTP увеличивает счётчик запросов по имени эндпоинта.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated(court string) {
	bookingsCreated.WithLabelValues(court).Inc()
}

func IncStatusChange(status string) {
	bookingStatusChanges.WithLabelValues(status).Inc()
}

// IncRejection учитывает отказ аллокатора по причине (код ошибки).
func IncRejection(reason string) {
	allocatorRejections.WithLabelValues(reason).Inc()
}

func IncSlotConflict() {
	slotConflicts.Inc()
}

func IncReportTask(outcome string) {
	reportTasks.WithLabelValues(outcome).Inc()
}
