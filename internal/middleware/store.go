package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by both data stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RequireStore pings the data store before the handler runs and aborts with
// HTTP 500 when it is unreachable.  It is the only failure that does not
// answer with HTTP 200.
func RequireStore(p Pinger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				c.Logger().Errorf("store ping failed: %v", err)
				return fail(c, http.StatusInternalServerError, "Database connection failed: "+err.Error())
			}
			return next(c)
		}
	}
}
