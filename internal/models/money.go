package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kopecks денежная сумма в копейках. Десятичное представление
// формируется только на границе API.
type Kopecks int64

// FromRubles переводит рубли (из YAML-каталога площадок) в копейки.
func FromRubles(rub float64) Kopecks {
	return Kopecks(math.Round(rub * 100))
}

// Decimal строка вида "1500.00".
func (k Kopecks) Decimal() string {
	sign := ""
	v := int64(k)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseKopecks разбирает десятичную строку вида "1500.00" в копейки.
func ParseKopecks(s string) (Kopecks, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	rub, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	var kop int64
	if hasFrac {
		if len(frac) < 1 || len(frac) > 2 {
			return 0, fmt.Errorf("invalid money amount %q", s)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		kop, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid money amount %q", s)
		}
	}
	v := rub*100 + kop
	if neg {
		v = -v
	}
	return Kopecks(v), nil
}

// MarshalJSON наружу суммы уходят десятичной строкой, целочисленные
// копейки в API не попадают.
func (k Kopecks) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.Decimal() + `"`), nil
}

func (k *Kopecks) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		parsed, err := ParseKopecks(raw[1 : len(raw)-1])
		if err != nil {
			return err
		}
		*k = parsed
		return nil
	}
	// Голое число трактуется как копейки
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid money amount %s: %w", raw, err)
	}
	*k = Kopecks(v)
	return nil
}

// Money сумма с кодом валюты для внешних потребителей.
type Money struct {
	Amount   Kopecks
	Currency string
}

func NewMoney(amount Kopecks) Money {
	return Money{Amount: amount, Currency: DefaultCurrency}
}

func (m Money) String() string {
	return m.Amount.Decimal() + " " + m.Currency
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}{Amount: m.Amount.Decimal(), Currency: m.Currency})
}

// DepositFor сумма депозита по ставке rate, округленная до копейки.
func DepositFor(total Kopecks, rate float64) Kopecks {
	return Kopecks(math.Round(float64(total) * rate))
}
