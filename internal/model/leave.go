package model

import (
	"strings"
	"time"
)

// DateLayout is the only calendar date format accepted or produced.
const DateLayout = "2006-01-02"

// LeaveStatus is the closed set of review states of a leave request.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// ParseLeaveStatus accepts exactly one of the three known values.
func ParseLeaveStatus(s string) (LeaveStatus, bool) {
	switch st := LeaveStatus(s); st {
	case LeavePending, LeaveApproved, LeaveRejected:
		return st, true
	}
	return "", false
}

// Rank orders statuses for the all-employees listing: pending first.
func (s LeaveStatus) Rank() int {
	switch s {
	case LeavePending:
		return 1
	case LeaveApproved:
		return 2
	case LeaveRejected:
		return 3
	}
	return 4
}

// LeaveType is an open label such as "annual" or "sick".
type LeaveType string

// Normalize trims surrounding whitespace.
func (t LeaveType) Normalize() LeaveType { return LeaveType(strings.TrimSpace(string(t))) }

// Date is a calendar day without time of day, serialized as YYYY-MM-DD.
type Date struct{ time.Time }

// NewDate truncates t to its calendar day in t's own location and returns it
// as midnight UTC so that dates compare independently of timezone.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.Format(DateLayout) }

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+DateLayout+`"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Leave mirrors the `leaves` table.
//
// Fields:
//
//	ID         – primary key identifier.
//	EmployeeID – owning user; always a non-admin account.
//	LeaveType  – free-form label.
//	StartDate  – first day off (inclusive).
//	EndDate    – last day off (inclusive), never before StartDate.
//	Reason     – 10 to 500 characters.
//	Status     – pending, approved or rejected.
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – set on every status change.
type Leave struct {
	ID         uint64
	EmployeeID uint64
	LeaveType  LeaveType
	StartDate  Date
	EndDate    Date
	Reason     string
	Status     LeaveStatus
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// Overlaps reports whether the inclusive range [start, end] shares at least
// one calendar day with the leave.
func (l Leave) Overlaps(start, end Date) bool {
	return !l.StartDate.After(end.Time) && !l.EndDate.Before(start.Time)
}

// LeaveView is a leave joined with its employee's name and department, the
// shape returned by the listing endpoint.
type LeaveView struct {
	ID         uint64      `json:"id"`
	EmployeeID uint64      `json:"employee_id"`
	Name       string      `json:"name"`
	Department string      `json:"department"`
	LeaveType  LeaveType   `json:"leave_type"`
	StartDate  Date        `json:"start_date"`
	EndDate    Date        `json:"end_date"`
	Reason     string      `json:"reason"`
	Status     LeaveStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}
