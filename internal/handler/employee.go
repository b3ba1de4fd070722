package handler

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leave-management/internal/service"
)

// EmployeeHandler serves employee administration.
type EmployeeHandler struct {
	Svc *service.EmployeeService
}

func NewEmployeeHandler(svc *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{Svc: svc}
}

// employeeReq carries the action selector plus the fields of "add".  Length
// limits are enforced by the service after its required-field check.
type employeeReq struct {
	Action     field `json:"action" form:"action"`         // operation to perform
	Name       field `json:"name" form:"name"`             // display name
	Email      field `json:"email" form:"email"`           // login, unique
	Password   field `json:"password" form:"password"`     // plain text, hashed by the service
	Department field `json:"department" form:"department"` // organisational unit
}

// Employees dispatches on the action field; only "add" is supported.
func (h *EmployeeHandler) Employees(c echo.Context) error {
	var req employeeReq
	if err := c.Bind(&req); err != nil {
		return failMsg(c, "Invalid request body")
	}
	switch strings.TrimSpace(req.Action.String()) {
	case "add":
		return h.add(c, req)
	default:
		return failMsg(c, "Invalid action")
	}
}

// add creates a non-admin account.  The response carries no data.
func (h *EmployeeHandler) add(c echo.Context, req employeeReq) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, err := h.Svc.Add(ctx, service.AddInput{
		Name:       req.Name.String(),
		Email:      req.Email.String(),
		Password:   req.Password.String(),
		Department: req.Department.String(),
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Employee added successfully", nil)
}
