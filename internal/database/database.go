package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kortovik/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB

	mu           sync.RWMutex
	courtsCache  map[int64]models.Court
	sortedCourts []models.Court
}

func NewDB(path string) (*DB, error) {
	// Создаем директорию для БД, если её нет
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// _txlock=immediate выстраивает пишущие транзакции в очередь
	// вместо падения на апгрейде блокировки
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &DB{DB: db, courtsCache: make(map[int64]models.Court)}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Таблица бронирований
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_number TEXT UNIQUE NOT NULL,
            court_id INTEGER NOT NULL,
            court_name TEXT NOT NULL,
            user_id INTEGER NOT NULL,
            user_name TEXT NOT NULL,
            date TEXT NOT NULL,
            start_time INTEGER NOT NULL,
            end_time INTEGER NOT NULL,
            hours INTEGER NOT NULL,
            participants_count INTEGER NOT NULL,
            price_per_hour INTEGER NOT NULL,
            total_price INTEGER NOT NULL,
            deposit_amount INTEGER NOT NULL,
            currency TEXT NOT NULL DEFAULT 'RUB',
            status TEXT NOT NULL DEFAULT 'pending',
            payment_status TEXT NOT NULL DEFAULT 'pending',
            contact_name TEXT NOT NULL,
            contact_phone TEXT NOT NULL,
            contact_email TEXT,
            special_requests TEXT,
            cancel_reason TEXT,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            confirmed_at DATETIME,
            cancelled_at DATETIME,
            version INTEGER NOT NULL DEFAULT 1
        )`,

		// Почасовые слоты занятости. Уникальность по (court_id, date, start_time)
		// страхует от двойной записи на один и тот же час.
		`CREATE TABLE IF NOT EXISTS time_slots (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            court_id INTEGER NOT NULL,
            date TEXT NOT NULL,
            start_time INTEGER NOT NULL,
            end_time INTEGER NOT NULL,
            is_available BOOLEAN NOT NULL DEFAULT 1,
            is_blocked BOOLEAN NOT NULL DEFAULT 0,
            booking_id INTEGER,
            price INTEGER,
            UNIQUE(court_id, date, start_time)
        )`,

		// Очередь задач на обновление реестра
		`CREATE TABLE IF NOT EXISTS report_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_court_date ON bookings(court_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_number ON bookings(booking_number)`,
		`CREATE INDEX IF NOT EXISTS idx_time_slots_court_date ON time_slots(court_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_report_queue_status ON report_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// SetCourts загружает каталог площадок в кэш. Каталог приходит из
// courts.yaml и является источником правил для аллокатора.
func (db *DB) SetCourts(courts []models.Court) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.courtsCache = make(map[int64]models.Court, len(courts))
	for _, court := range courts {
		db.courtsCache[court.ID] = court
	}
	db.sortedCourts = courts
}

// GetCourt возвращает снимок площадки из каталога.
func (db *DB) GetCourt(courtID int64) (models.Court, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	court, ok := db.courtsCache[courtID]
	if !ok {
		return models.Court{}, ErrCourtNotFound
	}
	return court, nil
}

// ListCourts возвращает каталог в порядке загрузки.
func (db *DB) ListCourts() []models.Court {
	db.mu.RLock()
	defer db.mu.RUnlock()

	courts := make([]models.Court, len(db.sortedCourts))
	copy(courts, db.sortedCourts)
	return courts
}

// HealthCheck проверяет соединение с БД.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}
