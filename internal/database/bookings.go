package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kortovik/internal/models"

	sqlite3 "github.com/mattn/go-sqlite3"
)

const bookingColumns = `id, booking_number, court_id, court_name, user_id, user_name,
                 date(date), start_time, end_time, hours, participants_count,
                 price_per_hour, total_price, deposit_amount, currency,
                 status, payment_status, contact_name, contact_phone,
                 COALESCE(contact_email, ''), COALESCE(special_requests, ''), COALESCE(cancel_reason, ''),
                 created_at, updated_at, confirmed_at, cancelled_at, version`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	b := &models.Booking{}
	var dateStr string
	err := row.Scan(
		&b.ID, &b.BookingNumber, &b.CourtID, &b.CourtName, &b.UserID, &b.UserName,
		&dateStr, &b.StartTime, &b.EndTime, &b.Hours, &b.ParticipantsCount,
		&b.PricePerHour, &b.TotalPrice, &b.DepositAmount, &b.Currency,
		&b.Status, &b.PaymentStatus, &b.ContactName, &b.ContactPhone,
		&b.ContactEmail, &b.SpecialRequests, &b.CancelReason,
		&b.CreatedAt, &b.UpdatedAt, &b.ConfirmedAt, &b.CancelledAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.Date, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	return b, nil
}

// countOverlapTx считает активные брони, пересекающие интервал.
// Интервалы полуоткрытые, стыкующиеся часы пересечением не считаются.
func countOverlapTx(ctx context.Context, tx *sql.Tx, courtID int64, date time.Time, start, end models.ClockTime, excludeBookingID int64) (int, error) {
	query := `SELECT COUNT(*) FROM bookings
              WHERE court_id = ? AND date = ? AND status IN (?, ?)
              AND start_time < ? AND end_time > ? AND id != ?`
	var count int
	err := tx.QueryRowContext(ctx, query, courtID, date.Format("2006-01-02"),
		models.StatusPending, models.StatusConfirmed,
		int(end), int(start), excludeBookingID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return count, nil
}

func countBlockedTx(ctx context.Context, tx *sql.Tx, courtID int64, date time.Time, start, end models.ClockTime) (int, error) {
	query := `SELECT COUNT(*) FROM time_slots
              WHERE court_id = ? AND date = ? AND is_blocked = 1
              AND start_time < ? AND end_time > ?`
	var count int
	err := tx.QueryRowContext(ctx, query, courtID, date.Format("2006-01-02"),
		int(end), int(start)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count blocked slots: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// CreateBookingWithSlots создает бронь и почасовые слоты в одной
// транзакции. Пересечения и блокировки перепроверяются внутри
// транзакции, UNIQUE(court_id, date, start_time) страхует гонку на
// уровне схемы.
func (db *DB) CreateBookingWithSlots(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	overlaps, err := countOverlapTx(ctx, tx, booking.CourtID, booking.Date, booking.StartTime, booking.EndTime, 0)
	if err != nil {
		return err
	}
	if overlaps > 0 {
		return ErrSlotConflict
	}

	blocked, err := countBlockedTx(ctx, tx, booking.CourtID, booking.Date, booking.StartTime, booking.EndTime)
	if err != nil {
		return err
	}
	if blocked > 0 {
		return ErrSlotBlocked
	}

	now := time.Now()
	queryInsert := `INSERT INTO bookings (
                booking_number, court_id, court_name, user_id, user_name,
                date, start_time, end_time, hours, participants_count,
                price_per_hour, total_price, deposit_amount, currency,
                status, payment_status, contact_name, contact_phone,
                contact_email, special_requests, created_at, updated_at, version
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.BookingNumber,
		booking.CourtID,
		booking.CourtName,
		booking.UserID,
		booking.UserName,
		booking.Date.Format("2006-01-02"),
		int(booking.StartTime),
		int(booking.EndTime),
		booking.Hours,
		booking.ParticipantsCount,
		booking.PricePerHour,
		booking.TotalPrice,
		booking.DepositAmount,
		booking.Currency,
		booking.Status,
		booking.PaymentStatus,
		booking.ContactName,
		booking.ContactPhone,
		booking.ContactEmail,
		booking.SpecialRequests,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	// Почасовые слоты. Нарушение уникальности означает, что
	// параллельная бронь успела занять час.
	querySlot := `INSERT INTO time_slots (court_id, date, start_time, end_time, is_available, is_blocked, booking_id, price)
                  VALUES (?, ?, ?, ?, 0, 0, ?, ?)`
	for hourStart := booking.StartTime; hourStart < booking.EndTime; hourStart += models.SlotDurationMinutes {
		_, err := tx.ExecContext(ctx, querySlot,
			booking.CourtID,
			booking.Date.Format("2006-01-02"),
			int(hourStart),
			int(hourStart)+models.SlotDurationMinutes,
			id,
			booking.PricePerHour,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("failed to insert time slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_number = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by number: %w", err)
	}
	return booking, nil
}

// UpdateBookingStatusWithVersion переводит бронь в новый статус через
// оптимистическую блокировку. Нулевое число строк означает, что версия
// устарела.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	now := time.Now()
	var query string
	var args []any

	switch status {
	case models.StatusConfirmed:
		query = `UPDATE bookings SET status = ?, confirmed_at = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
		args = []any{status, now, now, id, fromVersion}
	case models.StatusCancelled, models.StatusRejected:
		query = `UPDATE bookings SET status = ?, cancelled_at = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
		args = []any{status, now, now, id, fromVersion}
	default:
		query = `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
		args = []any{status, now, id, fromVersion}
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) UpdatePaymentStatusWithVersion(ctx context.Context, id, fromVersion int64, paymentStatus string) error {
	query := `UPDATE bookings SET payment_status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, paymentStatus, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// ReleaseBookingWithSlots отменяет или отклоняет бронь и освобождает
// её слоты в одной транзакции.
func (db *DB) ReleaseBookingWithSlots(ctx context.Context, id, fromVersion int64, status, reason string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Внесенный депозит или полная оплата подлежат возврату,
	// неоплаченная бронь просто закрывается
	now := time.Now()
	query := `UPDATE bookings SET status = ?, cancel_reason = ?, cancelled_at = ?,
                  payment_status = CASE WHEN payment_status IN (?, ?) THEN ? ELSE ? END,
                  version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := tx.ExecContext(ctx, query, status, reason, now,
		models.PaymentPartial, models.PaymentPaid, models.PaymentRefunded, models.PaymentCancelled,
		now, id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to release booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}

	// Блокировки менеджера не трогаем, снимаются только слоты брони
	_, err = tx.ExecContext(ctx, `DELETE FROM time_slots WHERE booking_id = ? AND is_blocked = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to release time slots: %w", err)
	}

	return tx.Commit()
}

func (db *DB) ListBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
              FROM bookings WHERE date(date) >= ? AND date(date) <= ?
              ORDER BY date ASC, start_time ASC`
	rows, err := db.QueryContext(ctx, query, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (db *DB) ListCourtBookings(ctx context.Context, courtID int64, date time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
              FROM bookings WHERE court_id = ? AND date = ? AND status IN (?, ?)
              ORDER BY start_time ASC`
	rows, err := db.QueryContext(ctx, query, courtID, date.Format("2006-01-02"),
		models.StatusPending, models.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to get court bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (db *DB) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	// Показываем брони за последние 2 недели и будущие
	twoWeeksAgo := time.Now().AddDate(0, 0, -14).Format("2006-01-02")
	query := `SELECT ` + bookingColumns + `
              FROM bookings WHERE user_id = ? AND date >= ?
              ORDER BY date DESC, start_time DESC`
	rows, err := db.QueryContext(ctx, query, userID, twoWeeksAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CompleteExpired переводит подтвержденные брони с прошедшим временем
// окончания в completed. Возвращает идентификаторы обработанных броней.
func (db *DB) CompleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	today := now.Format("2006-01-02")
	nowMinutes := now.Hour()*60 + now.Minute()

	querySelect := `SELECT id FROM bookings
                    WHERE status = ? AND (date < ? OR (date = ? AND end_time <= ?))`
	rows, err := tx.QueryContext(ctx, querySelect, models.StatusConfirmed, today, today, nowMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to select expired bookings: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expired booking id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, tx.Commit()
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	queryUpdate := fmt.Sprintf(
		`UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id IN (%s)`,
		placeholders)
	args := make([]any, 0, len(ids)+2)
	args = append(args, models.StatusCompleted, now)
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := tx.ExecContext(ctx, queryUpdate, args...); err != nil {
		return nil, fmt.Errorf("failed to complete expired bookings: %w", err)
	}

	return ids, tx.Commit()
}
