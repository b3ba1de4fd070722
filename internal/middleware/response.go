package middleware

import "github.com/labstack/echo/v4"

// fail writes the failure envelope used by every endpoint.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}
