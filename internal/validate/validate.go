// Package validate holds the stateless input checks shared by the leave and
// employee workflows.  None of these functions touch the store.
package validate

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/leave-management/internal/model"
)

// ErrInvalidDate is returned by ParseDate for anything that is not an
// existing YYYY-MM-DD calendar day.
var ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")

// MissingFieldsError lists every required field that was absent or blank.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

// RequireFields checks that each name is present in input and non-blank after
// trimming.  All missing names are reported together, in the order given.
func RequireFields(names []string, input map[string]string) error {
	var missing []string
	for _, n := range names {
		if v, ok := input[n]; !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// ParseDate parses an unambiguous YYYY-MM-DD calendar date.  Non-existent
// days such as 2025-02-30 are rejected rather than rolled over.
func ParseDate(text string) (model.Date, error) {
	text = strings.TrimSpace(text)
	if len(text) != len(model.DateLayout) {
		return model.Date{}, ErrInvalidDate
	}
	t, err := time.Parse(model.DateLayout, text)
	if err != nil {
		return model.Date{}, ErrInvalidDate
	}
	return model.NewDate(t), nil
}

// SanitizeText trims surrounding whitespace.  Escaping for transport is left
// to the JSON encoder.
func SanitizeText(text string) string {
	return strings.TrimSpace(text)
}

// Length counts characters, not bytes.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// Today returns the calendar day of now in loc.
func Today(now time.Time, loc *time.Location) model.Date {
	if loc != nil {
		now = now.In(loc)
	}
	return model.NewDate(now)
}

var (
	once sync.Once
	v    *validator.Validate
)

// Validator returns the shared go-playground validator instance.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
	})
	return v
}

// Email reports whether s is a syntactically valid address.
func Email(s string) bool {
	return Validator().Var(s, "required,email") == nil
}
