package events

import (
	"encoding/json"
	"sync"
	"time"

	"payandpark/internal/models"

	"github.com/rs/zerolog"
)

const (
	EventBookingCreated = "booking_created"
	EventBookingEnded   = "booking_ended"
)

// BookingEventPayload is the booking snapshot handed to subscribers.
type BookingEventPayload struct {
	BookingID     int64      `json:"booking_id"`
	ParkingSlotID int64      `json:"parking_slot_id"`
	UserID        int64      `json:"user_id"`
	Status        string     `json:"status"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Price         *int64     `json:"price,omitempty"`
}

func NewBookingPayload(b *models.Booking) BookingEventPayload {
	return BookingEventPayload{
		BookingID:     b.ID,
		ParkingSlotID: b.ParkingSlotID,
		UserID:        b.UserID,
		Status:        string(b.Status),
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Price:         b.Price,
	}
}

type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event. A returned error is logged and does not stop delivery.
type EventHandler func(event *Event) error

// EventBus is an in-process synchronous pub/sub keyed by event type.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish delivers the event to every subscriber of its type in registration order.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for i, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Int("handler", i).Msg("event handler failed")
		}
	}
}

// PublishJSON marshals payload and publishes it. A nil bus drops the event.
func (b *EventBus) PublishJSON(eventType string, payload any) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	b.Publish(&event)
	return nil
}

func NewJSONEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
