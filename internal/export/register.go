package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"kortovik/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const registerSheet = "Бронирования"

// RegisterWriter пишет реестр бронирований в xlsx-файл. Файл
// пересобирается целиком на каждое обновление.
type RegisterWriter struct {
	logger *zerolog.Logger
}

func NewRegisterWriter(logger *zerolog.Logger) *RegisterWriter {
	return &RegisterWriter{logger: logger}
}

// WriteRegister выгружает брони в файл по пути path.
func (w *RegisterWriter) WriteRegister(ctx context.Context, path string, bookings []*models.Booking) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(registerSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Номер", "Площадка", "Дата", "Время", "Часы", "Участники",
		"Клиент", "Телефон", "Цена за час", "Итого", "Депозит",
		"Статус", "Оплата", "Создано",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(registerSheet, cell, header)
		_ = f.SetCellStyle(registerSheet, cell, cell, headerStyle)
	}

	for i, booking := range bookings {
		row := i + 2
		values := []interface{}{
			booking.BookingNumber,
			booking.CourtName,
			booking.Date.Format("02.01.2006"),
			fmt.Sprintf("%s-%s", booking.StartTime, booking.EndTime),
			booking.Hours,
			booking.ParticipantsCount,
			booking.ContactName,
			booking.ContactPhone,
			booking.PricePerHour.Decimal(),
			booking.TotalPrice.Decimal(),
			booking.DepositAmount.Decimal(),
			statusLabel(booking.Status),
			paymentLabel(booking.PaymentStatus),
			booking.CreatedAt.Format("02.01.2006 15:04"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(registerSheet, cell, value)
		}

		if styleID, err := rowStyle(f, booking.Status); err == nil {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(values), row)
			_ = f.SetCellStyle(registerSheet, first, last, styleID)
		}
	}

	_ = f.SetColWidth(registerSheet, "A", "A", 20)
	_ = f.SetColWidth(registerSheet, "B", "B", 25)
	_ = f.SetColWidth(registerSheet, "C", "N", 15)

	_ = f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}

	w.logger.Info().Str("file_path", path).Int("bookings", len(bookings)).Msg("Booking register written")
	return nil
}

func rowStyle(f *excelize.File, status string) (int, error) {
	color := "#FFFFFF"
	switch status {
	case models.StatusConfirmed, models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusPending:
		color = "#FFEB9C"
	case models.StatusCancelled, models.StatusRejected:
		color = "#FFC7CE"
	}

	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
		},
	})
}

func statusLabel(status string) string {
	switch status {
	case models.StatusPending:
		return "Ожидает"
	case models.StatusConfirmed:
		return "Подтверждено"
	case models.StatusCancelled:
		return "Отменено"
	case models.StatusCompleted:
		return "Завершено"
	case models.StatusRejected:
		return "Отклонено"
	default:
		return status
	}
}

func paymentLabel(status string) string {
	switch status {
	case models.PaymentPending:
		return "Не оплачено"
	case models.PaymentPartial:
		return "Депозит"
	case models.PaymentPaid:
		return "Оплачено"
	case models.PaymentRefunded:
		return "Возврат"
	case models.PaymentCancelled:
		return "Отменено"
	default:
		return status
	}
}
