package events

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const publishTimeout = 5 * time.Second

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPForwarder republishes booking events to a topic exchange, using the
// event type as routing key.
type AMQPForwarder struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	logger   *zerolog.Logger
}

func NewAMQPForwarder(url, exchange string, logger *zerolog.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPForwarder{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// Attach subscribes the forwarder to every booking event on bus.
func (f *AMQPForwarder) Attach(bus *EventBus) {
	bus.SubscribeBookings(f.forward)
}

func (f *AMQPForwarder) forward(event *Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := f.ch.PublishWithContext(ctx, f.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.CreatedAt,
		Body:         event.Payload,
	})
	if err != nil {
		f.logger.Error().Err(err).Str("routing_key", event.Type).Msg("Failed to forward event to AMQP")
		return err
	}
	return nil
}

func (f *AMQPForwarder) Close() error {
	if f.ch != nil {
		_ = f.ch.Close()
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
