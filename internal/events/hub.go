package events

import (
	"sync"
	"sync/atomic"
	"time"

	"playcafe/internal/models"

	"github.com/rs/zerolog"
)

// Subscription receives booking changes for a fixed set of cafés.
type Subscription struct {
	C <-chan models.BookingChange

	ch      chan models.BookingChange
	cafes   map[string]struct{}
	dropped atomic.Int64
	once    sync.Once
	hub     *Hub
}

// Dropped counts changes discarded because the subscriber fell behind.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close detaches the subscription and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub fans booking changes out to café-scoped subscribers and mirrors them
// onto the event bus.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	bus    *EventBus
	logger *zerolog.Logger
}

func NewHub(bus *EventBus, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		bus:    bus,
		logger: logger,
	}
}

// Subscribe returns a subscription that only sees changes for cafeIDs.
func (h *Hub) Subscribe(cafeIDs []string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = models.WorkerQueueSize
	}
	ch := make(chan models.BookingChange, buffer)
	sub := &Subscription{
		C:     ch,
		ch:    ch,
		cafes: make(map[string]struct{}, len(cafeIDs)),
		hub:   h,
	}
	for _, id := range cafeIDs {
		sub.cafes[id] = struct{}{}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

// Subscribers reports the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// PublishChange never blocks: a full subscriber buffer drops the change.
func (h *Hub) PublishChange(change models.BookingChange) {
	if change.At.IsZero() {
		change.At = time.Now()
	}

	h.mu.RLock()
	for sub := range h.subs {
		if _, ok := sub.cafes[change.CafeID]; !ok {
			continue
		}
		select {
		case sub.ch <- change:
		default:
			sub.dropped.Add(1)
			h.logger.Warn().
				Str("cafe_id", change.CafeID).
				Str("booking_id", change.BookingID()).
				Msg("Subscriber buffer full, dropping change")
		}
	}
	h.mu.RUnlock()

	if err := h.bus.PublishJSON(EventType(change.Type), change); err != nil {
		h.logger.Error().Err(err).Str("booking_id", change.BookingID()).Msg("Booking change handler failed")
	}
}
