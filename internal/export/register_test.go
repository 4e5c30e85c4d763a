package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"kortovik/internal/logging"
	"kortovik/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testBookings() []*models.Booking {
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return []*models.Booking{
		{
			BookingNumber:     "BOOK-20260901-A1F0",
			CourtID:           1,
			CourtName:         "Центральный корт",
			Date:              date,
			StartTime:         models.ClockTime(10 * 60),
			EndTime:           models.ClockTime(12 * 60),
			Hours:             2,
			ParticipantsCount: 6,
			PricePerHour:      150000,
			TotalPrice:        300000,
			DepositAmount:     90000,
			Status:            models.StatusConfirmed,
			PaymentStatus:     models.PaymentPartial,
			ContactName:       "Иван Петров",
			ContactPhone:      "+79001234567",
			CreatedAt:         time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC),
		},
		{
			BookingNumber:     "BOOK-20260901-B2C3",
			CourtID:           2,
			CourtName:         "Песчаный корт",
			Date:              date,
			StartTime:         models.ClockTime(18 * 60),
			EndTime:           models.ClockTime(19 * 60),
			Hours:             1,
			ParticipantsCount: 4,
			Status:            models.StatusCancelled,
			PaymentStatus:     models.PaymentCancelled,
			ContactName:       "Анна",
			ContactPhone:      "+79007654321",
			CreatedAt:         time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestWriteRegister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "register.xlsx")
	w := NewRegisterWriter(logging.Nop())

	err := w.WriteRegister(context.Background(), path, testBookings())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.NotContains(t, f.GetSheetList(), "Sheet1")
	require.Contains(t, f.GetSheetList(), "Бронирования")

	header, err := f.GetCellValue("Бронирования", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Номер", header)

	number, _ := f.GetCellValue("Бронирования", "A2")
	assert.Equal(t, "BOOK-20260901-A1F0", number)

	date, _ := f.GetCellValue("Бронирования", "C2")
	assert.Equal(t, "01.09.2026", date)

	interval, _ := f.GetCellValue("Бронирования", "D2")
	assert.Equal(t, "10:00-12:00", interval)

	total, _ := f.GetCellValue("Бронирования", "J2")
	assert.Equal(t, "3000.00", total)

	status, _ := f.GetCellValue("Бронирования", "L2")
	assert.Equal(t, "Подтверждено", status)

	cancelled, _ := f.GetCellValue("Бронирования", "L3")
	assert.Equal(t, "Отменено", cancelled)
}

func TestWriteRegisterEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "register.xlsx")
	w := NewRegisterWriter(logging.Nop())

	require.NoError(t, w.WriteRegister(context.Background(), path, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, _ := f.GetCellValue("Бронирования", "F1")
	assert.Equal(t, "Участники", header)
}
