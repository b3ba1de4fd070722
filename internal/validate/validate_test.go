package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireFields_ListsEveryMissingField(t *testing.T) {
	err := RequireFields([]string{"a", "b", "c", "d"}, map[string]string{
		"a": "x",
		"b": "   ",
		"d": "",
	})
	require.Error(t, err)

	var mf *MissingFieldsError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, []string{"b", "c", "d"}, mf.Fields)
	assert.Equal(t, "Missing required fields: b, c, d", err.Error())
}

func TestRequireFields_AllPresent(t *testing.T) {
	assert.NoError(t, RequireFields([]string{"a"}, map[string]string{"a": " v "}))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), d.Time)

	d, err = ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []string{
		"",
		"2025-02-30",
		"2023-02-29",
		"2025-13-01",
		"2025-6-1",
		"01/06/2025",
		"2025-06-01T00:00:00Z",
		"20250601",
		"tomorrow",
	} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, in)
	}
}

func TestSanitizeTextAndLength(t *testing.T) {
	assert.Equal(t, "Family trip", SanitizeText("  Family trip \n"))
	assert.Equal(t, 5, Length("héllo"))
}

func TestToday_UsesLocationCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC) // 06:00 on June 2 in loc
	assert.Equal(t, "2025-06-02", Today(now, loc).String())
	assert.Equal(t, "2025-06-01", Today(now, time.UTC).String())
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("jane@example.com"))
	assert.False(t, Email("jane@"))
	assert.False(t, Email(""))
}
