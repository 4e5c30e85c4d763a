package worker

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kortovik/internal/database"
	"kortovik/internal/logging"
	"kortovik/internal/models"
)

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	writer := &fakeWriter{}
	w := NewReportWorker(db, writer, nil, RetryPolicy{}, t.TempDir(), logging.Nop())

	booking := &models.Booking{ID: 1, BookingNumber: "BOOK-20260901-AAAA"}

	ctx := context.Background()
	if err := w.EnqueueTask(ctx, models.TaskRegisterUpdate, booking); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := w.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != "completed" {
		t.Fatalf("expected status=completed, got %s", status)
	}
	if retryCount != 0 {
		t.Fatalf("expected retry_count=0, got %d", retryCount)
	}
	if nextRetry.Valid {
		t.Fatalf("expected next_retry_at NULL on success")
	}
	if writer.calls != 1 {
		t.Fatalf("expected one register write, got %d", writer.calls)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	writer := &fakeWriter{err: errors.New("boom")}
	w := NewReportWorker(db, writer, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, t.TempDir(), logging.Nop())

	ctx := context.Background()
	if err := w.EnqueueTask(ctx, models.TaskRegisterRebuild, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := w.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != "retry" {
		t.Fatalf("expected status=retry, got %s", status)
	}
	if retryCount != 1 {
		t.Fatalf("expected retry_count=1, got %d", retryCount)
	}
	if !nextRetry.Valid || nextRetry.Time.Before(time.Now()) {
		t.Fatalf("expected next_retry_at in future, got %v", nextRetry)
	}
}

func TestProcessTaskFail(t *testing.T) {
	db := newTestDB(t)
	writer := &fakeWriter{err: errors.New("fatal")}
	w := NewReportWorker(db, writer, nil, RetryPolicy{MaxRetries: 1}, t.TempDir(), logging.Nop())

	ctx := context.Background()
	w.EnqueueTask(ctx, models.TaskRegisterUpdate, &models.Booking{ID: 3})
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != "failed" {
		t.Fatalf("expected status=failed, got %s", status)
	}
}

func TestProcessTaskUnknownType(t *testing.T) {
	db := newTestDB(t)
	writer := &fakeWriter{}
	w := NewReportWorker(db, writer, nil, RetryPolicy{MaxRetries: 1}, t.TempDir(), logging.Nop())

	ctx := context.Background()
	w.EnqueueTask(ctx, "resync_everything", nil)
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != "failed" {
		t.Fatalf("expected status=failed, got %s", status)
	}
	if writer.calls != 0 {
		t.Fatalf("expected no register writes, got %d", writer.calls)
	}
}

func TestEnqueueTask(t *testing.T) {
	db := newTestDB(t)
	w := NewReportWorker(db, &fakeWriter{}, nil, RetryPolicy{}, t.TempDir(), logging.Nop())

	ctx := context.Background()

	t.Run("ValidTask", func(t *testing.T) {
		if err := w.EnqueueTask(ctx, models.TaskRegisterUpdate, &models.Booking{ID: 1, BookingNumber: "BOOK-20260901-AAAB"}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	})

	t.Run("NilBookingAllowed", func(t *testing.T) {
		if err := w.EnqueueTask(ctx, models.TaskRegisterRebuild, nil); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	})

	t.Run("EmptyTaskType", func(t *testing.T) {
		if err := w.EnqueueTask(ctx, "", nil); err == nil {
			t.Fatalf("expected error for empty task type")
		}
	})
}

func TestRunSweep(t *testing.T) {
	db := newTestDB(t)
	w := NewReportWorker(db, &fakeWriter{}, nil, RetryPolicy{}, t.TempDir(), logging.Nop())

	sweeper := &fakeSweeper{completed: 2}
	w.SetSweeper(sweeper)
	w.runSweep(context.Background())
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep call, got %d", sweeper.calls)
	}

	// Без свипера цикл просто пропускает шаг.
	w.SetSweeper(nil)
	w.runSweep(context.Background())
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	if d := policy.NextDelay(1); d != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d)
	}
	if d := policy.NextDelay(2); d != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d)
	}
	if d := policy.NextDelay(5); d != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d)
	}
	if d := policy.NextDelay(0); d != time.Second {
		t.Fatalf("attempt0 expected 1s, got %s", d)
	}
}

// Helpers

type fakeWriter struct {
	err   error
	calls int
	last  []*models.Booking
}

func (f *fakeWriter) WriteRegister(ctx context.Context, path string, bookings []*models.Booking) error {
	f.calls++
	f.last = bookings
	return f.err
}

type fakeSweeper struct {
	completed int
	calls     int
}

func (f *fakeSweeper) CompleteExpired(ctx context.Context) (int, error) {
	f.calls++
	return f.completed, nil
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.db")
	db, err := database.NewDB(path)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (status string, retryCount int, nextRetry sql.NullTime) {
	t.Helper()
	row := db.QueryRowContext(context.Background(), `SELECT status, retry_count, next_retry_at FROM report_queue WHERE id = ?`, id)
	if err := row.Scan(&status, &retryCount, &nextRetry); err != nil {
		t.Fatalf("scan task: %v", err)
	}
	return status, retryCount, nextRetry
}
