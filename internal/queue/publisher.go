package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultDialTimeout bounds the broker handshake of a single publish.
const DefaultDialTimeout = 2 * time.Second

// Publisher sends LeaveEvents to RabbitMQ.  Each call dials, declares the
// queue and publishes one persistent message.  The dial is bounded by
// DialTimeout and by the deadline of the caller's context, whichever is
// sooner.  Errors are logged and returned so the caller can ignore them.
type Publisher struct {
	URL         string
	DialTimeout time.Duration
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url, DialTimeout: DefaultDialTimeout}
}

// dialTimeout is the time left for connecting, or false when ctx is done.
func (p *Publisher) dialTimeout(ctx context.Context) (time.Duration, bool) {
	if ctx.Err() != nil {
		return 0, false
	}
	d := p.DialTimeout
	if d <= 0 {
		d = DefaultDialTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			return 0, false
		}
		if left < d {
			d = left
		}
	}
	return d, true
}

func (p *Publisher) Publish(ctx context.Context, ev LeaveEvent) error {
	timeout, ok := p.dialTimeout(ctx)
	if !ok {
		log.Printf("rabbitmq: publish skipped: %v", context.Cause(ctx))
		return context.Cause(ctx)
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// declare is idempotent; durable so messages survive broker restarts.
func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(QueueName, true, false, false, false, nil)
	return err
}
