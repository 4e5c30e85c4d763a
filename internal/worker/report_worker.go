package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"kortovik/internal/database"
	"kortovik/internal/domain"
	"kortovik/internal/metrics"
	"kortovik/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RegisterFileName имя файла реестра в каталоге выгрузок.
const RegisterFileName = "register.xlsx"

// Реестр покрывает месяц назад и три месяца вперёд от текущей даты.
const (
	registerDaysBack    = 30
	registerDaysForward = 90
)

// reportTaskPayload хранится в ReportTask.Payload как JSON.
type reportTaskPayload struct {
	BookingID     int64  `json:"booking_id,omitempty"`
	BookingNumber string `json:"booking_number,omitempty"`
}

// Sweeper закрывает брони, чей интервал уже прошёл.
type Sweeper interface {
	CompleteExpired(ctx context.Context) (int, error)
}

// ReportWorker перестраивает xlsx-реестр бронирований по задачам из
// report_queue. Задачи дублируются в redis для быстрой доставки, очередь
// в базе остаётся источником истины: при потере redis задачи добираются
// поллингом.
type ReportWorker struct {
	db            *database.DB
	writer        domain.RegisterWriter
	sweeper       Sweeper
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.ReportTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	sweepInterval time.Duration
	batchSize     int
	exportPath    string
	logger        *zerolog.Logger
}

func NewReportWorker(db *database.DB, writer domain.RegisterWriter, redisClient *redis.Client, retry RetryPolicy, exportPath string, logger *zerolog.Logger) *ReportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ReportWorker{
		db:            db,
		writer:        writer,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.ReportTask, 128),
		redisQueueKey: "reports:queue",
		deadLetterKey: "reports:deadletter",
		pollInterval:  2 * time.Second,
		sweepInterval: 10 * time.Minute,
		batchSize:     20,
		exportPath:    exportPath,
		logger:        logger,
	}
}

// SetSweeper подключает закрытие просроченных броней к циклу воркера.
// Вызывается после сборки сервисов, до Start.
func (w *ReportWorker) SetSweeper(s Sweeper) {
	w.sweeper = s
}

// EnqueueTask сохраняет задачу в базе и планирует её через redis либо
// локальную очередь.
func (w *ReportWorker) EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error {
	if taskType == "" {
		return errors.New("task type is required")
	}

	payload := reportTaskPayload{}
	if booking != nil {
		payload.BookingID = booking.ID
		payload.BookingNumber = booking.BookingNumber
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.ReportTask{
		TaskType:  taskType,
		BookingID: payload.BookingID,
		Payload:   string(payloadBytes),
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	if err := w.db.CreateReportTask(ctx, &task); err != nil {
		return fmt.Errorf("persist report task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("Redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		// Очередь в базе всё равно доберёт задачу поллингом.
		w.logger.Warn().Int64("task_id", task.ID).Msg("In-memory queue full, task left for polling")
	}

	return nil
}

// Start запускает основной цикл; останавливается по ctx.
func (w *ReportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Report worker started")
	defer w.logger.Info().Msg("Report worker stopped")

	sweep := time.NewTicker(w.sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			w.runSweep(ctx)
			continue
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingReportTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to fetch pending report tasks")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *ReportWorker) runSweep(ctx context.Context) {
	if w.sweeper == nil {
		return
	}
	n, err := w.sweeper.CompleteExpired(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to complete expired bookings")
		return
	}
	if n > 0 {
		w.logger.Info().Int("completed", n).Msg("Expired bookings completed")
	}
}

func (w *ReportWorker) tryLocalQueue() (models.ReportTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.ReportTask{}, false
	}
}

func (w *ReportWorker) tryRedis(ctx context.Context) (models.ReportTask, bool) {
	if w.redis == nil {
		return models.ReportTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.DeadlineExceeded) {
			return models.ReportTask{}, false
		}
		w.logger.Error().Err(err).Msg("Redis BRPOP error")
		return models.ReportTask{}, false
	}
	if len(res) != 2 {
		return models.ReportTask{}, false
	}
	var task models.ReportTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("Failed to decode redis task")
		return models.ReportTask{}, false
	}
	return task, true
}

func (w *ReportWorker) processTask(ctx context.Context, task *models.ReportTask) {
	if err := w.handleTask(ctx, task.TaskType); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateReportTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark task completed")
	}
	metrics.IncReportTask("completed")
}

// handleTask перестраивает реестр целиком: и точечное обновление, и
// полная пересборка сводятся к перезаписи файла.
func (w *ReportWorker) handleTask(ctx context.Context, taskType string) error {
	switch taskType {
	case models.TaskRegisterUpdate, models.TaskRegisterRebuild:
		return w.rebuildRegister(ctx)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *ReportWorker) rebuildRegister(ctx context.Context) error {
	now := time.Now()
	start := now.AddDate(0, 0, -registerDaysBack)
	end := now.AddDate(0, 0, registerDaysForward)

	bookings, err := w.db.ListBookingsByDateRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	path := filepath.Join(w.exportPath, RegisterFileName)
	return w.writer.WriteRegister(ctx, path, bookings)
}

func (w *ReportWorker) retryOrFail(ctx context.Context, task *models.ReportTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.UpdateReportTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark task failed")
		}
		w.pushDeadLetter(ctx, task)
		metrics.IncReportTask("failed")
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateReportTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark task for retry")
	}
	metrics.IncReportTask("retry")
}

func (w *ReportWorker) pushRedis(ctx context.Context, task models.ReportTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *ReportWorker) pushDeadLetter(ctx context.Context, task *models.ReportTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to encode dead letter task")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to push dead letter task")
	}
}
