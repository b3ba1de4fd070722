// Package queue defines the leave events exchanged over the message broker,
// the publisher that sends them and the consumer that records them.
package queue

import (
	"context"
	"errors"
)

// QueueName is the durable queue all leave events are routed to.
const QueueName = "leave.events"

// Event types.
const (
	EventLeaveApplied       = "leave.applied"
	EventLeaveStatusChanged = "leave.status_changed"
)

// LeaveEvent is published after a leave request is created or changes status.
// It carries enough for downstream consumers to log or notify without
// querying the database.
type LeaveEvent struct {
	Type           string `json:"type"`
	LeaveID        uint64 `json:"leave_id"`
	EmployeeID     uint64 `json:"employee_id"`
	LeaveType      string `json:"leave_type"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

// Sink receives leave events.
type Sink interface {
	Publish(ctx context.Context, ev LeaveEvent) error
}

// Fanout delivers every event to each sink and joins their errors.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, ev LeaveEvent) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
