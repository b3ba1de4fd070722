package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leave-management/internal/middleware"
	"github.com/iliyamo/leave-management/internal/model"
	"github.com/iliyamo/leave-management/internal/service"
)

// LeaveHandler serves leave application, listing and review.
type LeaveHandler struct {
	Svc *service.LeaveService
}

func NewLeaveHandler(svc *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{Svc: svc}
}

// applyReq is the leave application body.  Every field stays raw text so
// the service can report missing and malformed values in its own order.
type applyReq struct {
	EmployeeID field `json:"employee_id" form:"employee_id"` // applicant's user id
	LeaveType  field `json:"leave_type" form:"leave_type"`   // free text, e.g. "annual"
	StartDate  field `json:"start_date" form:"start_date"`   // YYYY-MM-DD, inclusive
	EndDate    field `json:"end_date" form:"end_date"`       // YYYY-MM-DD, inclusive
	Reason     field `json:"reason" form:"reason"`           // 10 to 500 characters
}

// statusReq is the review decision body.
type statusReq struct {
	LeaveID field `json:"leave_id" form:"leave_id"` // leave request to update
	Status  field `json:"status" form:"status"`     // approved, rejected or pending
}

// Apply submits a leave request.  An authenticated employee may only apply
// for themselves.
func (h *LeaveHandler) Apply(c echo.Context) error {
	var req applyReq
	if err := c.Bind(&req); err != nil {
		return failMsg(c, "Invalid request body")
	}
	// an EMPLOYEE token cannot file leave for someone else
	if uid, isEmployee := employeeCaller(c); isEmployee && req.EmployeeID.String() != "" &&
		req.EmployeeID.String() != strconv.FormatUint(uid, 10) {
		return failMsg(c, "You can only apply for your own leave")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Svc.Apply(ctx, service.ApplyInput{
		EmployeeID: req.EmployeeID.String(),
		LeaveType:  req.LeaveType.String(),
		StartDate:  req.StartDate.String(),
		EndDate:    req.EndDate.String(),
		Reason:     req.Reason.String(),
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Leave application submitted successfully", echo.Map{"leave_id": id})
}

// List returns leave requests, optionally filtered by ?employee_id=.  An
// authenticated employee always sees only their own.
func (h *LeaveHandler) List(c echo.Context) error {
	in := service.ListInput{
		EmployeeID:  c.QueryParam("employee_id"),
		HasEmployee: c.QueryParams().Has("employee_id"),
	}
	// an EMPLOYEE token is pinned to its own leave requests
	if uid, isEmployee := employeeCaller(c); isEmployee {
		own := strconv.FormatUint(uid, 10)
		if in.HasEmployee && in.EmployeeID != own {
			return failMsg(c, "You can only view your own leave requests")
		}
		in = service.ListInput{EmployeeID: own, HasEmployee: true}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.List(ctx, in)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, res.Message, res.Leaves)
}

// UpdateStatus approves, rejects or reopens a leave request.
func (h *LeaveHandler) UpdateStatus(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return failMsg(c, "Invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msg, err := h.Svc.UpdateStatus(ctx, req.LeaveID.String(), req.Status.String())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, msg, nil)
}

// employeeCaller reports the caller's id when the request carries an
// EMPLOYEE token.  Without a token (auth not enforced) it reports false.
func employeeCaller(c echo.Context) (uint64, bool) {
	uid, found := middleware.UserID(c)
	if !found {
		return 0, false
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	return uid, role == model.RoleEmployee
}
