package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/leave-management/internal/middleware"
	"github.com/iliyamo/leave-management/internal/model"
	"github.com/iliyamo/leave-management/internal/repository/memory"
	"github.com/iliyamo/leave-management/internal/service"
)

var now = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

type resp struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fixture struct {
	e     *echo.Echo
	store *memory.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := func() time.Time { return now }
	st := memory.NewWithClock(clock)
	emp := service.NewEmployeeService(st, bcrypt.MinCost, service.TokenConfig{Secret: "s", AccessTTLMin: 5, RefreshTTLDays: 1})
	leaves := &service.LeaveService{Store: st, Now: clock, Loc: time.UTC}

	e := echo.New()
	a := NewAuthHandler(emp)
	eh := NewEmployeeHandler(emp)
	lh := NewLeaveHandler(leaves)
	e.POST("/login", a.Login)
	e.POST("/refresh", a.Refresh)
	e.POST("/logout", a.Logout)
	e.GET("/me", a.Me, middleware.JWTAuth("s"))
	e.POST("/employees", eh.Employees)
	e.POST("/leaves", lh.Apply)
	e.GET("/leaves", lh.List)
	e.GET("/leaves/mine", lh.List, middleware.JWTAuth("s"))
	e.POST("/leaves/status", lh.UpdateStatus)
	e.GET("/healthz", Healthz)
	e.GET("/health", NewHealthHandler(&service.HealthService{Store: st, Database: "elms_db", Now: clock}).Health)
	return fixture{e: e, store: st}
}

func (f fixture) postForm(t *testing.T, path string, vals url.Values) resp {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return f.do(t, req)
}

func (f fixture) postJSON(t *testing.T, path, body string) resp {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return f.do(t, req)
}

func (f fixture) get(t *testing.T, target, bearer string) resp {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	return f.do(t, req)
}

func (f fixture) do(t *testing.T, req *http.Request) resp {
	t.Helper()
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var r resp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r), rec.Body.String())
	return r
}

func (f fixture) addEmployee(t *testing.T, email string) {
	t.Helper()
	r := f.postForm(t, "/employees", url.Values{
		"action": {"add"}, "name": {"Jane Doe"}, "email": {email},
		"password": {"secret1"}, "department": {"Engineering"},
	})
	require.True(t, r.Success, r.Message)
}

func TestEmployees(t *testing.T) {
	f := newFixture(t)

	r := f.postForm(t, "/employees", url.Values{"action": {"delete"}})
	assert.False(t, r.Success)
	assert.Equal(t, "Invalid action", r.Message)

	r = f.postForm(t, "/employees", url.Values{"name": {"x"}})
	assert.Equal(t, "Invalid action", r.Message)

	r = f.postForm(t, "/employees", url.Values{
		"action": {"add"}, "name": {"Jane"}, "email": {"jane@x.com"}, "password": {"secret1"}, "department": {"Eng"},
	})
	assert.True(t, r.Success)
	assert.Equal(t, "Employee added successfully", r.Message)
	assert.Empty(t, r.Data)

	r = f.postJSON(t, "/employees", `{"action":"add","name":"Jane","email":"jane@x.com","password":"secret1","department":"Eng"}`)
	assert.False(t, r.Success)
	assert.Equal(t, "Email already exists", r.Message)

	r = f.postJSON(t, "/employees", `{"action":"add","name":"`+strings.Repeat("n", 101)+`","email":"b@x.com","password":"secret1","department":"Eng"}`)
	assert.Equal(t, "Name must be at most 100 characters", r.Message)

	r = f.postJSON(t, "/employees", `{"action":"add","name":"`+strings.Repeat("n", 101)+`","email":"b@x.com"}`)
	assert.Equal(t, "Missing required fields: password, department", r.Message)
}

func TestLoginAndMe(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "jane@x.com")

	r := f.postForm(t, "/login", url.Values{"email": {"jane@x.com"}, "password": {"nope123"}})
	assert.False(t, r.Success)
	assert.Equal(t, "Invalid email or password", r.Message)

	r = f.postJSON(t, "/login", `{"email":"jane@x.com","password":"secret1"}`)
	require.True(t, r.Success, r.Message)
	assert.Equal(t, "Login successful", r.Message)

	var data struct {
		ID         uint64 `json:"id"`
		Name       string `json:"name"`
		Email      string `json:"email"`
		Department string `json:"department"`
		IsAdmin    bool   `json:"is_admin"`
		Role       string `json:"role"`
		Password   string `json:"password"`
		Access     struct {
			Token string `json:"token"`
		} `json:"access"`
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &data))
	assert.Equal(t, "Jane Doe", data.Name)
	assert.Equal(t, "Engineering", data.Department)
	assert.Equal(t, "EMPLOYEE", data.Role)
	assert.False(t, data.IsAdmin)
	assert.Empty(t, data.Password)
	assert.NotContains(t, string(r.Data), "password")

	me := f.get(t, "/me", data.Access.Token)
	require.True(t, me.Success)
	assert.Contains(t, string(me.Data), `"email":"jane@x.com"`)

	ref := f.postJSON(t, "/refresh", `{"refresh_token":"`+data.Refresh.Token+`"}`)
	assert.True(t, ref.Success, ref.Message)
	again := f.postJSON(t, "/refresh", `{"refresh_token":"`+data.Refresh.Token+`"}`)
	assert.False(t, again.Success)
	assert.Equal(t, "Invalid or expired refresh token", again.Message)

	out := f.postForm(t, "/logout", url.Values{"refresh_token": {"whatever"}})
	assert.True(t, out.Success)
}

func TestLeaveFlow(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "jane@x.com")

	r := f.get(t, "/leaves", "")
	require.True(t, r.Success)
	assert.Equal(t, "No leave requests found", r.Message)
	assert.JSONEq(t, `[]`, string(r.Data))

	r = f.postJSON(t, "/leaves", `{"employee_id":1,"leave_type":"annual","start_date":"2025-06-01","end_date":"2025-06-05","reason":"Family vacation trip"}`)
	require.True(t, r.Success, r.Message)
	assert.Equal(t, "Leave application submitted successfully", r.Message)
	assert.JSONEq(t, `{"leave_id":1}`, string(r.Data))

	r = f.postForm(t, "/leaves", url.Values{
		"employee_id": {"1"}, "leave_type": {"annual"}, "start_date": {"2025-06-03"},
		"end_date": {"2025-06-10"}, "reason": {"Family vacation trip"},
	})
	assert.False(t, r.Success)
	assert.Equal(t, "You already have a leave request for these dates", r.Message)

	r = f.postForm(t, "/leaves", url.Values{"employee_id": {"1"}})
	assert.Equal(t, "Missing required fields: leave_type, start_date, end_date, reason", r.Message)

	r = f.postForm(t, "/leaves", url.Values{"leave_type": {strings.Repeat("t", 60)}})
	assert.False(t, r.Success)
	assert.Equal(t, "Missing required fields: employee_id, start_date, end_date, reason", r.Message)

	r = f.get(t, "/leaves?employee_id=1", "")
	require.True(t, r.Success)
	assert.Equal(t, "Leaves retrieved successfully", r.Message)
	var views []map[string]any
	require.NoError(t, json.Unmarshal(r.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "2025-06-01", views[0]["start_date"])
	assert.Equal(t, "2025-06-05", views[0]["end_date"])
	assert.Equal(t, "pending", views[0]["status"])
	assert.Equal(t, "Jane Doe", views[0]["name"])

	r = f.get(t, "/leaves?employee_id=", "")
	assert.False(t, r.Success)
	assert.Equal(t, "Invalid employee ID", r.Message)

	r = f.postForm(t, "/leaves/status", url.Values{"leave_id": {"1"}, "status": {"approved"}})
	assert.True(t, r.Success)
	assert.Equal(t, "Leave request has been approved successfully", r.Message)

	r = f.postJSON(t, "/leaves/status", `{"leave_id":"1","status":"approved"}`)
	assert.False(t, r.Success)
	assert.Equal(t, "Leave is already approved", r.Message)
}

func TestList_EmployeeTokenSeesOwnLeaves(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "jane@x.com")
	f.addEmployee(t, "john@x.com")
	for _, id := range []string{"1", "2"} {
		r := f.postForm(t, "/leaves", url.Values{
			"employee_id": {id}, "leave_type": {"sick"}, "start_date": {"2025-06-01"},
			"end_date": {"2025-06-01"}, "reason": {"Doctor appointment"},
		})
		require.True(t, r.Success, r.Message)
	}
	login := f.postForm(t, "/login", url.Values{"email": {"john@x.com"}, "password": {"secret1"}})
	require.True(t, login.Success)
	var data struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	require.NoError(t, json.Unmarshal(login.Data, &data))

	r := f.get(t, "/leaves/mine", data.Access.Token)
	require.True(t, r.Success)
	var views []model.LeaveView
	require.NoError(t, json.Unmarshal(r.Data, &views))
	require.Len(t, views, 1)
	assert.EqualValues(t, 2, views[0].EmployeeID)

	r = f.get(t, "/leaves/mine?employee_id=1", data.Access.Token)
	assert.False(t, r.Success)
	assert.Equal(t, "You can only view your own leave requests", r.Message)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "jane@x.com")

	r := f.get(t, "/health", "")
	require.True(t, r.Success)
	assert.Equal(t, "Database connection successful!", r.Message)
	assert.JSONEq(t, `{"database":"elms_db","total_users":1,"total_leaves":0,"timestamp":"2025-05-20 09:00:00"}`, string(r.Data))

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestFieldUnmarshal(t *testing.T) {
	var dto struct {
		A field `json:"a"`
		B field `json:"b"`
		C field `json:"c"`
		D flag  `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":5,"b":"x","c":null,"d":"true"}`), &dto))
	assert.Equal(t, field("5"), dto.A)
	assert.Equal(t, field("x"), dto.B)
	assert.Equal(t, field(""), dto.C)
	assert.True(t, bool(dto.D))
}

func TestFail_UnclassifiedError(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, fail(c, errors.New("boom")))
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, rec.Body.String())
}
