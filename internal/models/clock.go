package models

import (
	"fmt"
	"time"
)

// ClockTime время суток в минутах от полуночи. Хранится в БД и YAML
// строкой "HH:MM", арифметика идет в минутах без перехода через сутки.
type ClockTime int

const MinutesPerDay = 24 * 60

// ParseClock разбирает строку "HH:MM".
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// MustClock для констант и тестов.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// AddHours возвращает время через h часов в пределах тех же суток.
// Второе значение false при выходе за полночь.
func (c ClockTime) AddHours(h int) (ClockTime, bool) {
	end := int(c) + h*60
	if end > MinutesPerDay {
		return 0, false
	}
	return ClockTime(end), true
}

// Hour час начала слота.
func (c ClockTime) Hour() int {
	return int(c) / 60
}

// At совмещает дату и время суток в момент времени в зоне loc.
func (c ClockTime) At(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(date.Year(), date.Month(), date.Day(), int(c)/60, int(c)%60, 0, 0, loc)
}

func (c ClockTime) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *ClockTime) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Overlaps проверка пересечения полуоткрытых интервалов [aStart, aEnd) и
// [bStart, bEnd). Касающиеся интервалы не пересекаются.
func Overlaps(aStart, aEnd, bStart, bEnd ClockTime) bool {
	return aStart < bEnd && bStart < aEnd
}
