package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"payandpark/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func endedBooking() *models.Booking {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Minute)
	price := int64(84)
	return &models.Booking{
		ID:            7,
		ParkingSlotID: 3,
		UserID:        11,
		Status:        models.BookingEnded,
		StartTime:     start,
		EndTime:       &end,
		Price:         &price,
	}
}

func TestPublishJSONDeliversBookingPayload(t *testing.T) {
	bus := NewEventBus(nil)

	var received []*Event
	bus.Subscribe(EventBookingEnded, func(event *Event) error {
		received = append(received, event)
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventBookingEnded, NewBookingPayload(endedBooking())))
	require.Len(t, received, 1)
	assert.Equal(t, EventBookingEnded, received[0].Type)
	assert.False(t, received[0].CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &decoded))
	assert.Equal(t, int64(7), decoded.BookingID)
	assert.Equal(t, int64(3), decoded.ParkingSlotID)
	assert.Equal(t, "ENDED", decoded.Status)
	require.NotNil(t, decoded.Price)
	assert.Equal(t, int64(84), *decoded.Price)
	require.NotNil(t, decoded.EndTime)
	assert.True(t, decoded.EndTime.Equal(decoded.StartTime.Add(42*time.Minute)))
}

func TestActiveBookingPayloadOmitsEndFields(t *testing.T) {
	b := endedBooking()
	b.Status = models.BookingActive
	b.EndTime = nil
	b.Price = nil

	event, err := NewJSONEvent(EventBookingCreated, NewBookingPayload(b))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &raw))
	assert.NotContains(t, raw, "end_time")
	assert.NotContains(t, raw, "price")
	assert.Equal(t, "ACTIVE", raw["status"])
}

func TestSubscribersAreIsolatedByType(t *testing.T) {
	bus := NewEventBus(nil)
	var created, ended int

	bus.Subscribe(EventBookingCreated, func(_ *Event) error { created++; return nil })
	bus.Subscribe(EventBookingCreated, func(_ *Event) error { created++; return nil })
	bus.Subscribe(EventBookingEnded, func(_ *Event) error { ended++; return nil })

	bus.Publish(&Event{Type: EventBookingCreated})

	assert.Equal(t, 2, created)
	assert.Equal(t, 0, ended)
}

func TestFailingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewEventBus(nil)
	var calls int

	bus.Subscribe(EventBookingEnded, func(_ *Event) error { calls++; return errors.New("sink down") })
	bus.Subscribe(EventBookingEnded, func(_ *Event) error { calls++; return nil })

	require.NoError(t, bus.PublishJSON(EventBookingEnded, nil))
	assert.Equal(t, 2, calls)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	assert.NotPanics(t, func() { bus.Publish(&Event{Type: "unknown"}) })
	assert.NoError(t, bus.PublishJSON("unknown", nil))
}

func TestNilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBookingEnded, BookingEventPayload{}))
}

func TestPublishJSONMarshalError(t *testing.T) {
	bus := NewEventBus(nil)
	assert.Error(t, bus.PublishJSON(EventBookingCreated, make(chan int)))
}
