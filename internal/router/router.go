package router // package router registers the HTTP routes of the leave API

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/leave-management/internal/handler"
	"github.com/iliyamo/leave-management/internal/middleware"
)

// Deps carries everything the routes need.  RateLimit and Cache may be nil.
type Deps struct {
	Auth      *handler.AuthHandler
	Employees *handler.EmployeeHandler
	Leaves    *handler.LeaveHandler
	Health    *handler.HealthHandler
	Store     middleware.Pinger

	JWTSecret    string
	AuthEnforced bool // require tokens on leave and employee routes

	RateLimit echo.MiddlewareFunc // applied to login
	Cache     echo.MiddlewareFunc // applied to the leave listing
}

// Setup installs the global middleware: request ids, access log, panic
// recovery and CORS for any origin.
func Setup(e *echo.Echo) {
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
}

// RegisterRoutes mounts /healthz and everything under /v1.  Every /v1 route
// first checks that the store is reachable.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Healthz)

	v1 := e.Group("/v1", middleware.RequireStore(d.Store))
	v1.GET("/health", d.Health.Health)

	registerAuth(v1, d)
	registerLeaves(v1, d)
}

// registerAuth mounts login and session routes.  Login is rate limited.
func registerAuth(v1 *echo.Group, d Deps) {
	g := v1.Group("/auth")
	g.POST("/login", d.Auth.Login, optional(d.RateLimit)...)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/logout", d.Auth.Logout)

	v1.GET("/me", d.Auth.Me, middleware.JWTAuth(d.JWTSecret))
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
