package models

import "time"

// Типы задач очереди отчетов.
const (
	TaskRegisterUpdate  = "register_update"
	TaskRegisterRebuild = "register_rebuild"
)

// ReportTask отложенная задача обновления реестра бронирований.
type ReportTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	BookingID   int64      `json:"booking_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}
