package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const queueName = "reservation.events"

// AMQPNotifier publishes events to a durable RabbitMQ queue. Messages are
// marked persistent so they survive broker restarts.
type AMQPNotifier struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPNotifier dials the broker and declares the event queue.
func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel open failed: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp queue declare failed: %w", err)
	}

	return &AMQPNotifier{conn: conn, ch: ch}, nil
}

func (n *AMQPNotifier) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		log.Printf("notify: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := n.ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("notify: publish %s failed: %v", e.Kind, err)
		return err
	}
	return nil
}

func (n *AMQPNotifier) Close() {
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
}
