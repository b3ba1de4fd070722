package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/leave-management/internal/model"
	"github.com/iliyamo/leave-management/internal/queue"
	"github.com/iliyamo/leave-management/internal/repository"
	"github.com/iliyamo/leave-management/internal/validate"
)

// Reason length bounds, in characters of the trimmed text.
const (
	ReasonMin = 10
	ReasonMax = 500
)

// LeaveTypeMax matches the width of the leave_type column.
const LeaveTypeMax = 50

// LeaveStore is the slice of the data store the leave workflows need.
// *repository.Store and *memory.Store both satisfy it.
type LeaveStore interface {
	InTx(ctx context.Context, fn func(tx repository.Tx) error) error
	ListLeaves(ctx context.Context, employeeID uint64) ([]model.LeaveView, error)
}

// EventSink receives leave events after the write that caused them has
// committed.
type EventSink interface {
	Publish(ctx context.Context, ev queue.LeaveEvent) error
}

// LeaveService implements apply, status update and listing.
type LeaveService struct {
	Store  LeaveStore
	Events EventSink // optional
	Now    func() time.Time
	Loc    *time.Location // decides which calendar day is today
}

// NewLeaveService returns a service using the wall clock and loc.
func NewLeaveService(store LeaveStore, events EventSink, loc *time.Location) *LeaveService {
	if loc == nil {
		loc = time.Local
	}
	return &LeaveService{Store: store, Events: events, Now: time.Now, Loc: loc}
}

// ApplyInput carries the raw request fields.
type ApplyInput struct {
	EmployeeID string
	LeaveType  string
	StartDate  string
	EndDate    string
	Reason     string
}

var applyFields = []string{"employee_id", "leave_type", "start_date", "end_date", "reason"}

// Apply validates in and stores a new pending leave request, returning its id.
// The employee row lock, overlap check and insert share one transaction so two
// concurrent applications for the same employee cannot both pass the check.
func (s *LeaveService) Apply(ctx context.Context, in ApplyInput) (uint64, error) {
	if err := validate.RequireFields(applyFields, map[string]string{
		"employee_id": in.EmployeeID,
		"leave_type":  in.LeaveType,
		"start_date":  in.StartDate,
		"end_date":    in.EndDate,
		"reason":      in.Reason,
	}); err != nil {
		return 0, validation(err.Error())
	}

	employeeID, ok := parseID(in.EmployeeID)
	if !ok {
		return 0, validation("Invalid employee ID")
	}

	start, err := validate.ParseDate(strings.TrimSpace(in.StartDate))
	if err != nil {
		return 0, validation("Invalid date format. Use YYYY-MM-DD")
	}
	end, err := validate.ParseDate(strings.TrimSpace(in.EndDate))
	if err != nil {
		return 0, validation("Invalid date format. Use YYYY-MM-DD")
	}
	if end.Before(start.Time) {
		return 0, validation("End date must be after or equal to start date")
	}
	if start.Before(validate.Today(s.now(), s.Loc).Time) {
		return 0, validation("Start date cannot be in the past")
	}

	reason := validate.SanitizeText(in.Reason)
	switch n := validate.Length(reason); {
	case n < ReasonMin:
		return 0, validation(fmt.Sprintf("Reason must be at least %d characters", ReasonMin))
	case n > ReasonMax:
		return 0, validation(fmt.Sprintf("Reason must be less than %d characters", ReasonMax))
	}
	leaveType := model.LeaveType(in.LeaveType).Normalize()
	if validate.Length(string(leaveType)) > LeaveTypeMax {
		return 0, validation(fmt.Sprintf("Leave type must be at most %d characters", LeaveTypeMax))
	}

	leave := model.Leave{
		EmployeeID: employeeID,
		LeaveType:  leaveType,
		StartDate:  start,
		EndDate:    end,
		Reason:     reason,
		Status:     model.LeavePending,
	}

	err = s.Store.InTx(ctx, func(tx repository.Tx) error {
		u, err := tx.FindUserByID(ctx, employeeID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Employee not found")
		}
		if err != nil {
			return err
		}
		if u.IsAdmin {
			return forbidden("Admins cannot apply for leave")
		}
		ids, err := tx.FindOverlappingLeaves(ctx, employeeID, start, end)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			return conflict("You already have a leave request for these dates")
		}
		return tx.InsertLeave(ctx, &leave)
	})
	if err != nil {
		return 0, asServiceError("Failed to submit leave application", err)
	}

	s.publish(ctx, queue.LeaveEvent{
		Type:       queue.EventLeaveApplied,
		LeaveID:    leave.ID,
		EmployeeID: leave.EmployeeID,
		LeaveType:  string(leave.LeaveType),
		StartDate:  leave.StartDate.String(),
		EndDate:    leave.EndDate.String(),
		Status:     string(leave.Status),
	})
	return leave.ID, nil
}

// UpdateStatus moves a leave request to status.  Any transition between the
// three statuses is allowed except one that would leave it unchanged.  It
// returns the confirmation message.
func (s *LeaveService) UpdateStatus(ctx context.Context, leaveIDRaw, statusRaw string) (string, error) {
	if err := validate.RequireFields([]string{"leave_id", "status"}, map[string]string{
		"leave_id": leaveIDRaw,
		"status":   statusRaw,
	}); err != nil {
		return "", validation(err.Error())
	}
	leaveID, ok := parseID(leaveIDRaw)
	if !ok {
		return "", validation("Invalid leave ID")
	}
	status, ok := model.ParseLeaveStatus(strings.TrimSpace(statusRaw))
	if !ok {
		return "", validation("Invalid status. Allowed values: approved, rejected, pending")
	}

	var before model.Leave
	err := s.Store.InTx(ctx, func(tx repository.Tx) error {
		l, err := tx.FindLeaveByID(ctx, leaveID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Leave request not found")
		}
		if err != nil {
			return err
		}
		if l.Status == status {
			return conflict(fmt.Sprintf("Leave is already %s", status))
		}
		before = l
		return tx.UpdateLeaveStatus(ctx, leaveID, status, s.now())
	})
	if err != nil {
		return "", asServiceError("Failed to update leave status", err)
	}

	s.publish(ctx, queue.LeaveEvent{
		Type:           queue.EventLeaveStatusChanged,
		LeaveID:        leaveID,
		EmployeeID:     before.EmployeeID,
		LeaveType:      string(before.LeaveType),
		StartDate:      before.StartDate.String(),
		EndDate:        before.EndDate.String(),
		Status:         string(status),
		PreviousStatus: string(before.Status),
	})
	return fmt.Sprintf("Leave request has been %s successfully", status), nil
}

// ListInput selects which requests List returns.  When HasEmployee is set
// EmployeeID must be a positive integer, even if it was sent blank.
type ListInput struct {
	EmployeeID  string
	HasEmployee bool
}

// ListResult is a listing plus its user-facing message.
type ListResult struct {
	Leaves  []model.LeaveView
	Message string
}

// List returns one employee's requests newest first, or every request with
// pending ones first.  An empty result is not an error.
func (s *LeaveService) List(ctx context.Context, in ListInput) (ListResult, error) {
	var employeeID uint64
	if in.HasEmployee {
		id, ok := parseID(in.EmployeeID)
		if !ok {
			return ListResult{}, validation("Invalid employee ID")
		}
		employeeID = id
	}
	leaves, err := s.Store.ListLeaves(ctx, employeeID)
	if err != nil {
		return ListResult{}, internal("Failed to fetch leaves", err)
	}
	if len(leaves) == 0 {
		return ListResult{Leaves: []model.LeaveView{}, Message: "No leave requests found"}, nil
	}
	return ListResult{Leaves: leaves, Message: "Leaves retrieved successfully"}, nil
}

func (s *LeaveService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// publish emits ev to the sink; a failing sink never fails the request.
func (s *LeaveService) publish(ctx context.Context, ev queue.LeaveEvent) {
	if s.Events == nil {
		return
	}
	ev.OccurredAt = s.now().UTC().Format(time.RFC3339)
	if err := s.Events.Publish(ctx, ev); err != nil {
		log.Printf("leave-events: publish %s for leave %d failed: %v", ev.Type, ev.LeaveID, err)
	}
}

// parseID accepts a positive decimal integer.
func parseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// asServiceError passes classified errors through and wraps everything else
// as an internal failure.
func asServiceError(prefix string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return internal(prefix, err)
}
