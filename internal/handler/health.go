package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leave-management/internal/service"
)

// Healthz is the liveness probe.  It returns a plain "ok".
func Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// HealthHandler reports store statistics.
type HealthHandler struct {
	Svc *service.HealthService
}

func NewHealthHandler(svc *service.HealthService) *HealthHandler {
	return &HealthHandler{Svc: svc}
}

// Health returns user and leave counts with a timestamp.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rep, err := h.Svc.Stats(ctx)
	if err != nil {
		c.Logger().Errorf("health stats: %v", err)
		return c.JSON(http.StatusInternalServerError, envelope{Success: false, Message: "Database connection failed"})
	}
	return ok(c, "Database connection successful!", rep)
}
