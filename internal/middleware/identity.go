package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userKey identifies the caller for rate limiting: the JWT subject when
// authenticated, "anon" otherwise.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
