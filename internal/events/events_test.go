package events

import (
	"encoding/json"
	"testing"
	"time"

	"kortovik/internal/models"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := BookingEventPayload{BookingID: 7, BookingNumber: "BOOK-20260901-A1B2"}
	if err := bus.PublishJSON(EventBookingCreated, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventBookingCreated {
		t.Errorf("expected type %s, got %s", EventBookingCreated, received.Type)
	}

	var decoded BookingEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded.BookingNumber != "BOOK-20260901-A1B2" {
		t.Errorf("unexpected booking number %s", decoded.BookingNumber)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	// Не должно паниковать
	bus.Publish(&Event{Type: "unknown"})
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}
}

func TestFromBooking(t *testing.T) {
	b := &models.Booking{
		ID:            5,
		BookingNumber: "BOOK-20260901-C3D4",
		CourtID:       1,
		CourtName:     "Центральный корт",
		UserID:        100,
		Date:          time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		StartTime:     models.MustClock("10:00"),
		EndTime:       models.MustClock("12:00"),
		TotalPrice:    300000,
		Status:        models.StatusPending,
	}

	payload := FromBooking(b)
	if payload.BookingID != 5 || payload.CourtID != 1 {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload.StartTime != models.MustClock("10:00") {
		t.Errorf("unexpected start time %v", payload.StartTime)
	}
}
