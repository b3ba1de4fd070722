package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leave-management/internal/middleware"
	"github.com/iliyamo/leave-management/internal/model"
)

// registerLeaves mounts employee administration and the leave workflow under
// /v1.  With AuthEnforced, every route needs a valid JWT; adding employees
// and deciding on leave additionally need the ADMIN role.  Without it the
// routes are open to any caller.
func registerLeaves(v1 *echo.Group, d Deps) {
	var authed, admin []echo.MiddlewareFunc
	if d.AuthEnforced {
		jwt := middleware.JWTAuth(d.JWTSecret)
		// any signed-in user
		authed = []echo.MiddlewareFunc{jwt, middleware.RequireRole(model.RoleAdmin, model.RoleEmployee)}
		// administrators only
		admin = []echo.MiddlewareFunc{jwt, middleware.RequireRole(model.RoleAdmin)}
	}

	// Employee administration.  The action field selects the operation;
	// only "add" is implemented.
	v1.POST("/employees", d.Employees.Employees, admin...)

	// Leave workflow.  Employees apply and list; the listing is served from
	// the Redis cache when one is configured and is invalidated by every
	// leave event.  Status decisions are reserved for administrators.
	v1.POST("/leaves", d.Leaves.Apply, authed...)
	v1.GET("/leaves", d.Leaves.List, append(authed, optional(d.Cache)...)...)
	v1.POST("/leaves/status", d.Leaves.UpdateStatus, admin...)
}
