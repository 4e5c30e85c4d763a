package database

import (
	"context"
	"fmt"
	"time"

	"kortovik/internal/models"
)

// ListDaySlots возвращает занятые и заблокированные часы площадки на
// дату. Свободные часы строк не имеют, их достраивает сервисный слой.
func (db *DB) ListDaySlots(ctx context.Context, courtID int64, date time.Time) ([]models.TimeSlot, error) {
	query := `SELECT id, court_id, date(date), start_time, end_time, is_available, is_blocked, booking_id, price
              FROM time_slots WHERE court_id = ? AND date = ?
              ORDER BY start_time ASC`
	rows, err := db.QueryContext(ctx, query, courtID, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get day slots: %w", err)
	}
	defer rows.Close()

	var slots []models.TimeSlot
	for rows.Next() {
		var s models.TimeSlot
		var dateStr string
		err := rows.Scan(&s.ID, &s.CourtID, &dateStr, &s.StartTime, &s.EndTime,
			&s.IsAvailable, &s.IsBlocked, &s.BookingID, &s.Price)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		s.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse slot date %s: %w", dateStr, err)
		}
		s.IsBooked = s.BookingID != nil
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// BlockSlots помечает интервал как недоступный для бронирования.
// Занятый броней час заблокировать нельзя.
func (db *DB) BlockSlots(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	overlaps, err := countOverlapTx(ctx, tx, courtID, date, start, end, 0)
	if err != nil {
		return err
	}
	if overlaps > 0 {
		return ErrSlotConflict
	}

	query := `INSERT INTO time_slots (court_id, date, start_time, end_time, is_available, is_blocked)
              VALUES (?, ?, ?, ?, 0, 1)
              ON CONFLICT(court_id, date, start_time) DO UPDATE SET
                  is_available = 0,
                  is_blocked = 1
              WHERE booking_id IS NULL`
	for hourStart := start; hourStart < end; hourStart += models.SlotDurationMinutes {
		_, err := tx.ExecContext(ctx, query,
			courtID, date.Format("2006-01-02"),
			int(hourStart), int(hourStart)+models.SlotDurationMinutes)
		if err != nil {
			return fmt.Errorf("failed to block slot: %w", err)
		}
	}

	return tx.Commit()
}

// UnblockSlots снимает блокировку с интервала.
func (db *DB) UnblockSlots(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) error {
	query := `DELETE FROM time_slots
              WHERE court_id = ? AND date = ? AND is_blocked = 1
              AND start_time >= ? AND start_time < ?`
	_, err := db.ExecContext(ctx, query, courtID, date.Format("2006-01-02"), int(start), int(end))
	if err != nil {
		return fmt.Errorf("failed to unblock slots: %w", err)
	}
	return nil
}

// HasOverlap проверяет пересечение интервала с активными бронями вне
// транзакции. Используется для быстрой проверки доступности, итоговое
// решение принимает CreateBookingWithSlots.
func (db *DB) HasOverlap(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings
              WHERE court_id = ? AND date = ? AND status IN (?, ?)
              AND start_time < ? AND end_time > ?`
	var count int
	err := db.QueryRowContext(ctx, query, courtID, date.Format("2006-01-02"),
		models.StatusPending, models.StatusConfirmed, int(end), int(start)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check overlap: %w", err)
	}
	return count > 0, nil
}

// HasBlocked проверяет, попадает ли в интервал заблокированный час.
func (db *DB) HasBlocked(ctx context.Context, courtID int64, date time.Time, start, end models.ClockTime) (bool, error) {
	query := `SELECT COUNT(*) FROM time_slots
              WHERE court_id = ? AND date = ? AND is_blocked = 1
              AND start_time < ? AND end_time > ?`
	var count int
	err := db.QueryRowContext(ctx, query, courtID, date.Format("2006-01-02"),
		int(end), int(start)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check blocked slots: %w", err)
	}
	return count > 0, nil
}
