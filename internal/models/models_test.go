package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("08:00")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(480), c)
	assert.Equal(t, "08:00", c.String())

	c, err = ParseClock("22:30")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(22*60+30), c)

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	_, err = ParseClock("9 утра")
	assert.Error(t, err)
}

func TestClockAddHours(t *testing.T) {
	start := MustClock("09:00")

	end, ok := start.AddHours(2)
	require.True(t, ok)
	assert.Equal(t, "11:00", end.String())

	// выход за полночь не поддерживается
	_, ok = MustClock("23:00").AddHours(2)
	assert.False(t, ok)

	end, ok = MustClock("22:00").AddHours(2)
	require.True(t, ok)
	assert.Equal(t, ClockTime(MinutesPerDay), end)
}

func TestOverlaps(t *testing.T) {
	// [09:00, 11:00) и [10:00, 11:00) пересекаются
	assert.True(t, Overlaps(MustClock("09:00"), MustClock("11:00"), MustClock("10:00"), MustClock("11:00")))
	// касающиеся интервалы не пересекаются
	assert.False(t, Overlaps(MustClock("09:00"), MustClock("11:00"), MustClock("11:00"), MustClock("12:00")))
	assert.False(t, Overlaps(MustClock("11:00"), MustClock("12:00"), MustClock("09:00"), MustClock("11:00")))
	// симметрия
	assert.True(t, Overlaps(MustClock("10:00"), MustClock("11:00"), MustClock("09:00"), MustClock("11:00")))
	// вложенный интервал
	assert.True(t, Overlaps(MustClock("09:00"), MustClock("12:00"), MustClock("10:00"), MustClock("11:00")))
}

func TestKopecksDecimal(t *testing.T) {
	assert.Equal(t, "1500.00", Kopecks(150000).Decimal())
	assert.Equal(t, "0.00", Kopecks(0).Decimal())
	assert.Equal(t, "12.05", Kopecks(1205).Decimal())
	assert.Equal(t, "-7.50", Kopecks(-750).Decimal())
}

func TestFromRubles(t *testing.T) {
	assert.Equal(t, Kopecks(150000), FromRubles(1500))
	assert.Equal(t, Kopecks(99950), FromRubles(999.50))
}

func TestMoneyJSON(t *testing.T) {
	raw, err := json.Marshal(NewMoney(250000))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"2500.00","currency":"RUB"}`, string(raw))
}

func TestKopecksJSON(t *testing.T) {
	raw, err := json.Marshal(Kopecks(300000))
	require.NoError(t, err)
	assert.Equal(t, `"3000.00"`, string(raw))

	var k Kopecks
	require.NoError(t, json.Unmarshal([]byte(`"3000.00"`), &k))
	assert.Equal(t, Kopecks(300000), k)

	// старый целочисленный формат тоже читается
	require.NoError(t, json.Unmarshal([]byte(`300000`), &k))
	assert.Equal(t, Kopecks(300000), k)

	require.Error(t, json.Unmarshal([]byte(`"30.005"`), &k))
}

func TestParseKopecks(t *testing.T) {
	k, err := ParseKopecks("12.5")
	require.NoError(t, err)
	assert.Equal(t, Kopecks(1250), k)

	k, err = ParseKopecks("-7.50")
	require.NoError(t, err)
	assert.Equal(t, Kopecks(-750), k)

	k, err = ParseKopecks("1500")
	require.NoError(t, err)
	assert.Equal(t, Kopecks(150000), k)

	_, err = ParseKopecks("abc")
	require.Error(t, err)
}

// Деньги в бронировании и в расчете стоимости уходят наружу в одном
// виде: десятичная сумма плюс код валюты.
func TestBookingMoneyJSON(t *testing.T) {
	b := &Booking{
		PricePerHour:  150000,
		TotalPrice:    300000,
		DepositAmount: 90000,
		Currency:      DefaultCurrency,
	}
	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "1500.00", payload["price_per_hour"])
	assert.Equal(t, "3000.00", payload["total_price"])
	assert.Equal(t, "900.00", payload["deposit_amount"])
	assert.Equal(t, "RUB", payload["currency"])
}

func TestDepositFor(t *testing.T) {
	assert.Equal(t, Kopecks(45000), DepositFor(150000, DefaultDepositRate))
	// округление до копейки
	assert.Equal(t, Kopecks(30), DepositFor(101, DefaultDepositRate))
	assert.Equal(t, Kopecks(0), DepositFor(0, DefaultDepositRate))
}

func TestCourtHourlyPrice(t *testing.T) {
	paid := &Court{PricePerHour: 120000}
	assert.Equal(t, Kopecks(120000), paid.HourlyPrice())

	// бесплатная площадка: записанная цена игнорируется
	free := &Court{IsFree: true, PricePerHour: 120000}
	assert.Equal(t, Kopecks(0), free.HourlyPrice())
}

func TestBookingStartInstant(t *testing.T) {
	b := &Booking{
		Date:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		StartTime: MustClock("18:00"),
	}
	assert.Equal(t, time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC), b.StartInstant(time.UTC))
}

func TestBookingIsActive(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusPending}).IsActive())
	assert.True(t, (&Booking{Status: StatusConfirmed}).IsActive())
	assert.False(t, (&Booking{Status: StatusCancelled}).IsActive())
	assert.False(t, (&Booking{Status: StatusRejected}).IsActive())
	assert.False(t, (&Booking{Status: StatusCompleted}).IsActive())
}
