package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LogFileName is the file, inside the configured directory, that receives one
// line per consumed event.
const LogFileName = "leave.log"

// StartLeaveConsumer connects to RabbitMQ, declares the leave.events queue and
// appends every message to <dir>/leave.log.  It reconnects with exponential
// backoff and only returns when ctx is cancelled.  A message that cannot be
// handled is rejected without requeue so the loop keeps going.
func StartLeaveConsumer(ctx context.Context, url, dir string) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("leave-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, dir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("leave-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("leave-consumer: set QoS failed: %v", err)
	}
	if err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := HandleMessage(dir, d.Body); err != nil {
			log.Printf("leave-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// HandleMessage decodes one event and appends it to <dir>/leave.log.
func HandleMessage(dir string, body []byte) error {
	var ev LeaveEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.LeaveID == 0 {
		return errors.New("event without type or leave id")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders an event as a single human readable log line.
func FormatLine(ev LeaveEvent) string {
	switch ev.Type {
	case EventLeaveStatusChanged:
		return fmt.Sprintf("[%s] Leave status changed | leave_id=%d | employee_id=%d | %s -> %s\n",
			ev.OccurredAt, ev.LeaveID, ev.EmployeeID, ev.PreviousStatus, ev.Status)
	default:
		return fmt.Sprintf("[%s] Leave applied | leave_id=%d | employee_id=%d | type=%q | %s..%s | status=%s\n",
			ev.OccurredAt, ev.LeaveID, ev.EmployeeID, ev.LeaveType, ev.StartDate, ev.EndDate, ev.Status)
	}
}
