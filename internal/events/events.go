package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"playcafe/internal/models"
)

const (
	EventBookingInsert = "booking.insert"
	EventBookingUpdate = "booking.update"
	EventBookingDelete = "booking.delete"
)

// BookingEventTypes lists every event type a booking change can produce.
var BookingEventTypes = []string{EventBookingInsert, EventBookingUpdate, EventBookingDelete}

// EventType maps a change kind to its bus event type.
func EventType(t models.ChangeType) string {
	return "booking." + string(t)
}

// Event is a published message. Payload holds JSON.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Change decodes the payload of a booking.* event.
func (e *Event) Change() (models.BookingChange, error) {
	var change models.BookingChange
	if err := json.Unmarshal(e.Payload, &change); err != nil {
		return change, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return change, nil
}

type EventHandler func(event *Event) error

// EventBus is an in-process publish/subscribe bus. Handlers run synchronously
// on the publishing goroutine in subscription order.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeBookings registers handler for insert, update and delete events.
func (b *EventBus) SubscribeBookings(handler EventHandler) {
	for _, eventType := range BookingEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Publish delivers event to every handler of its type. A failing handler does
// not stop the others; their errors are joined.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := b.subscribers[event.Type]
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON marshals payload and publishes it. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload any) error {
	if b == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
}
