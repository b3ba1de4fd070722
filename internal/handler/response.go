package handler // HTTP handlers for the leave API

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leave-management/internal/service"
)

// envelope is the body of every JSON response.  Business failures are still
// sent with HTTP 200; clients look at Success.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Message: msg, Data: data})
}

func failMsg(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, envelope{Success: false, Message: msg})
}

// fail renders a workflow error.  Internal errors are logged; their message
// already names the failed operation.
func fail(c echo.Context, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		c.Logger().Errorf("unclassified error: %v", err)
		return failMsg(c, "Internal server error")
	}
	if se.Kind == service.KindInternal {
		c.Logger().Errorf("%s", se.Message)
	}
	return failMsg(c, se.Message)
}

// field is a request value that binds from form data, query strings and JSON,
// where JSON may carry it as a string or a number.
type field string

func (f *field) UnmarshalParam(s string) error {
	*f = field(s)
	return nil
}

func (f *field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = field(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = field(n.String())
	}
	return nil
}

func (f field) String() string { return string(f) }

// flag is a boolean request value; anything strconv.ParseBool rejects is false.
type flag bool

func (f *flag) UnmarshalParam(s string) error {
	v, _ := strconv.ParseBool(s)
	*f = flag(v)
	return nil
}

func (f *flag) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	return f.UnmarshalParam(s)
}
