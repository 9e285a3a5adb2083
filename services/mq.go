package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bellapacxx/bingo-engine/game"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the subset of *amqp.Channel the sink publishes through.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// MQSink republishes session events to a RabbitMQ topic exchange with routing
// key "game.<event type>".
type MQSink struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func NewMQSink(url, exchange string) (*MQSink, error) {
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
	return &MQSink{conn: conn, ch: ch, exchange: exchange}, nil
}

func RoutingKey(t game.EventType) string {
	return "game." + string(t)
}

// Publish implements game.Broadcaster.
func (p *MQSink) Publish(ctx context.Context, ev game.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(ev.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    fmt.Sprintf("%s:%s:%d", ev.SessionID, ev.Type, len(ev.Snapshot.CalledNumbers)),
		Timestamp:    ev.At,
		Type:         string(ev.Type),
		Body:         b,
	})
}

func (p *MQSink) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
