package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"playcafe/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusPublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventBookingInsert, func(event *Event) error {
		received = append(received, event)
		return nil
	})

	change := models.BookingChange{
		Type:   models.ChangeInsert,
		CafeID: "cafe-1",
		New:    &models.Booking{ID: "b-1", CafeID: "cafe-1", Status: models.StatusPending},
	}
	require.NoError(t, bus.PublishJSON(EventBookingInsert, change))
	require.NoError(t, bus.PublishJSON(EventBookingUpdate, change), "no subscribers is not an error")
	require.Len(t, received, 1)
	assert.False(t, received[0].CreatedAt.IsZero())

	decoded, err := received[0].Change()
	require.NoError(t, err)
	assert.Equal(t, "b-1", decoded.BookingID())
	assert.Equal(t, models.StatusPending, decoded.New.Status)

	_, err = (&Event{Type: EventBookingInsert, Payload: []byte("{")}).Change()
	assert.Error(t, err)
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	boom := errors.New("boom")

	bus.SubscribeBookings(func(e *Event) error { calls = append(calls, "first:"+e.Type); return boom })
	bus.SubscribeBookings(func(e *Event) error { calls = append(calls, "second:"+e.Type); return nil })

	err := bus.Publish(&Event{Type: EventBookingDelete})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first:booking.delete", "second:booking.delete"}, calls)

	assert.NoError(t, bus.Publish(&Event{Type: "unrelated"}))
}

func TestEventBusNil(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBookingInsert, 1))

	assert.Error(t, NewEventBus().PublishJSON("bad", func() {}), "unmarshalable payload")
}

func TestEventType(t *testing.T) {
	assert.Equal(t, EventBookingInsert, EventType(models.ChangeInsert))
	assert.Equal(t, EventBookingUpdate, EventType(models.ChangeUpdate))
	assert.Equal(t, EventBookingDelete, EventType(models.ChangeDelete))
}

func change(cafeID, bookingID string, t models.ChangeType) models.BookingChange {
	return models.BookingChange{
		Type:   t,
		CafeID: cafeID,
		New:    &models.Booking{ID: bookingID, CafeID: cafeID},
	}
}

func TestHub_ScopesByCafe(t *testing.T) {
	bus := NewEventBus()
	var published []string
	for _, et := range BookingEventTypes {
		bus.Subscribe(et, func(e *Event) error {
			published = append(published, e.Type)
			return nil
		})
	}

	hub := NewHub(bus, nil)
	mine := hub.Subscribe([]string{"cafe-1", "cafe-2"}, 4)
	other := hub.Subscribe([]string{"cafe-3"}, 4)
	defer mine.Close()
	defer other.Close()

	hub.PublishChange(change("cafe-1", "b1", models.ChangeInsert))
	hub.PublishChange(change("cafe-3", "b2", models.ChangeUpdate))

	select {
	case got := <-mine.C:
		assert.Equal(t, "b1", got.BookingID())
		assert.False(t, got.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected change for cafe-1")
	}
	assert.Empty(t, mine.C)

	got := <-other.C
	assert.Equal(t, "b2", got.BookingID())

	assert.Equal(t, []string{EventBookingInsert, EventBookingUpdate}, published)
}

func TestHub_DropsWhenFull(t *testing.T) {
	hub := NewHub(nil, nil)
	sub := hub.Subscribe([]string{"cafe-1"}, 1)
	defer sub.Close()

	hub.PublishChange(change("cafe-1", "b1", models.ChangeInsert))
	hub.PublishChange(change("cafe-1", "b2", models.ChangeInsert))

	assert.Equal(t, int64(1), sub.Dropped())
	assert.Equal(t, "b1", (<-sub.C).BookingID())
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	hub := NewHub(nil, nil)
	sub := hub.Subscribe([]string{"cafe-1"}, 1)
	assert.Equal(t, 1, hub.Subscribers())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers())

	_, open := <-sub.C
	assert.False(t, open)

	hub.PublishChange(change("cafe-1", "b1", models.ChangeInsert))
}

type fakeChannel struct {
	exchange string
	keys     []string
	bodies   [][]byte
	err      error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange = exchange
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, msg.Body)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestAMQPForwarder(t *testing.T) {
	logger := zerolog.Nop()
	ch := &fakeChannel{}
	fwd := &AMQPForwarder{ch: ch, exchange: "playcafe.bookings", logger: &logger}

	bus := NewEventBus()
	fwd.Attach(bus)
	hub := NewHub(bus, &logger)

	hub.PublishChange(change("cafe-1", "b1", models.ChangeInsert))
	hub.PublishChange(models.BookingChange{Type: models.ChangeDelete, CafeID: "cafe-1", Old: &models.Booking{ID: "b1"}})

	assert.Equal(t, "playcafe.bookings", ch.exchange)
	assert.Equal(t, []string{EventBookingInsert, EventBookingDelete}, ch.keys)

	var decoded models.BookingChange
	require.NoError(t, json.Unmarshal(ch.bodies[1], &decoded))
	assert.Equal(t, "b1", decoded.BookingID())

	ch.err = errors.New("broker down")
	assert.Error(t, fwd.forward(&Event{Type: EventBookingUpdate}))
	assert.NoError(t, fwd.Close())
}
