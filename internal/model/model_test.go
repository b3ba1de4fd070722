package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) Date {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return NewDate(t)
}

func TestLeaveOverlaps(t *testing.T) {
	l := Leave{StartDate: d("2025-06-01"), EndDate: d("2025-06-05")}
	assert.True(t, l.Overlaps(d("2025-06-05"), d("2025-06-07")))
	assert.True(t, l.Overlaps(d("2025-05-30"), d("2025-06-01")))
	assert.True(t, l.Overlaps(d("2025-06-03"), d("2025-06-03")))
	assert.False(t, l.Overlaps(d("2025-06-06"), d("2025-06-06")))
	assert.False(t, l.Overlaps(d("2025-05-01"), d("2025-05-31")))
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(d("2025-06-01"))
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-01"`, string(b))

	var got Date
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, d("2025-06-01"), got)
	assert.Error(t, json.Unmarshal([]byte(`"06/01/2025"`), &got))
}

func TestNewDateUsesCalendarDayOfLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2025, 6, 1, 23, 30, 0, 0, loc) // 04:30 UTC on June 2
	assert.Equal(t, "2025-06-01", NewDate(late).String())
}

func TestStatus(t *testing.T) {
	st, ok := ParseLeaveStatus("approved")
	assert.True(t, ok)
	assert.Equal(t, LeaveApproved, st)
	_, ok = ParseLeaveStatus("Approved")
	assert.False(t, ok)
	assert.Less(t, LeavePending.Rank(), LeaveApproved.Rank())
	assert.Less(t, LeaveApproved.Rank(), LeaveRejected.Rank())
}

func TestUserJSONHidesCredential(t *testing.T) {
	b, err := json.Marshal(User{ID: 1, Email: "a@x.com", PasswordHash: "secret", IsAdmin: true})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.Equal(t, RoleAdmin, User{IsAdmin: true}.Role())
}
