package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/leave-management/internal/model"
	"github.com/iliyamo/leave-management/internal/repository/memory"
	"github.com/iliyamo/leave-management/internal/utils"
)

const testSecret = "test-secret"

func newEmployeeService(t *testing.T) (*EmployeeService, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := NewEmployeeService(st, bcrypt.MinCost, TokenConfig{Secret: testSecret, AccessTTLMin: 15, RefreshTTLDays: 7})
	return svc, st
}

func TestAdd(t *testing.T) {
	svc, st := newEmployeeService(t)
	ctx := context.Background()

	u, err := svc.Add(ctx, AddInput{Name: " Jane ", Email: "Jane@Example.com", Password: "secret1", Department: "Eng"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", u.Name)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.False(t, u.IsAdmin)

	stored, err := st.FindUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.False(t, utils.IsLegacyHash(stored.PasswordHash))
	ok, _ := utils.VerifyPassword(stored.PasswordHash, "secret1")
	assert.True(t, ok)

	_, err = svc.Add(ctx, AddInput{Name: "J2", Email: "jane@example.com", Password: "secret1", Department: "Eng"})
	requireKind(t, err, KindConflict, "Email already exists")
}

func TestAdd_Validation(t *testing.T) {
	svc, _ := newEmployeeService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, AddInput{Name: "Jane"})
	requireKind(t, err, KindValidation, "Missing required fields: email, password, department")
	_, err = svc.Add(ctx, AddInput{Name: "Jane", Email: "nope", Password: "secret1", Department: "Eng"})
	requireKind(t, err, KindValidation, "Invalid email format")
	_, err = svc.Add(ctx, AddInput{Name: "Jane", Email: "j@x.com", Password: "12345", Department: "Eng"})
	requireKind(t, err, KindValidation, "Password must be at least 6 characters")

	_, err = svc.Add(ctx, AddInput{Name: strings.Repeat("n", 101), Email: "j@x.com", Password: "secret1"})
	requireKind(t, err, KindValidation, "Missing required fields: department")
	_, err = svc.Add(ctx, AddInput{Name: strings.Repeat("n", 101), Email: "j@x.com", Password: "secret1", Department: "Eng"})
	requireKind(t, err, KindValidation, "Name must be at most 100 characters")
	_, err = svc.Add(ctx, AddInput{Name: "Jane", Email: "j@x.com", Password: "secret1", Department: strings.Repeat("d", 101)})
	requireKind(t, err, KindValidation, "Department must be at most 100 characters")
}

func TestAdd_PasswordByteLimit(t *testing.T) {
	svc, _ := newEmployeeService(t)
	ctx := context.Background()

	// 40 characters, 80 bytes
	long := strings.Repeat("é", 40)
	_, err := svc.Add(ctx, AddInput{Name: "Jane", Email: "j@x.com", Password: long, Department: "Eng"})
	requireKind(t, err, KindValidation, "Password must be at most 72 bytes")

	_, err = svc.Login(ctx, "j@x.com", long)
	requireKind(t, err, KindValidation, "Invalid email or password")

	_, err = svc.Add(ctx, AddInput{Name: "Jane", Email: "j@x.com", Password: strings.Repeat("é", 36), Department: "Eng"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "j@x.com", strings.Repeat("é", 36))
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	svc, _ := newEmployeeService(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, AddInput{Name: "Jane", Email: "jane@x.com", Password: "secret1", Department: "Eng"})
	require.NoError(t, err)

	sess, err := svc.Login(ctx, " jane@x.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", sess.User.Email)
	assert.NotEmpty(t, sess.Refresh.Raw)

	uid, role, err := utils.ParseAccessToken(testSecret, sess.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, uid)
	assert.Equal(t, model.RoleEmployee, role)

	_, err = svc.Login(ctx, "jane@x.com", "wrong-pass")
	requireKind(t, err, KindValidation, "Invalid email or password")
	_, err = svc.Login(ctx, "ghost@x.com", "secret1")
	requireKind(t, err, KindValidation, "Invalid email or password")
	_, err = svc.Login(ctx, "", "secret1")
	requireKind(t, err, KindValidation, "Email and password are required")
	_, err = svc.Login(ctx, "not-an-email", "secret1")
	requireKind(t, err, KindValidation, "Invalid email format")
}

func TestLogin_UpgradesLegacyDigest(t *testing.T) {
	svc, st := newEmployeeService(t)
	ctx := context.Background()
	admin := model.User{Name: "Admin", Email: "admin@company.com", PasswordHash: "0192023a7bbd73250516f069df18b500", IsAdmin: true}
	require.NoError(t, st.InsertUser(ctx, &admin))

	sess, err := svc.Login(ctx, "admin@company.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, sess.User.Role())

	stored, err := st.FindUserByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.False(t, utils.IsLegacyHash(stored.PasswordHash))

	_, err = svc.Login(ctx, "admin@company.com", "admin123")
	require.NoError(t, err)
}

func TestRefreshAndLogout(t *testing.T) {
	svc, _ := newEmployeeService(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, AddInput{Name: "Jane", Email: "jane@x.com", Password: "secret1", Department: "Eng"})
	require.NoError(t, err)
	sess, err := svc.Login(ctx, "jane@x.com", "secret1")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, sess.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, sess.Refresh.Raw, next.Refresh.Raw)

	// rotated token is single use
	_, err = svc.Refresh(ctx, sess.Refresh.Raw)
	requireKind(t, err, KindAuthorization, "Invalid or expired refresh token")

	require.NoError(t, svc.Logout(ctx, next.Refresh.Raw, false))
	_, err = svc.Refresh(ctx, next.Refresh.Raw)
	assert.Equal(t, KindAuthorization, KindOf(err))

	_, err = svc.Refresh(ctx, "")
	requireKind(t, err, KindValidation, "Refresh token is required")
}

func TestLogout_All(t *testing.T) {
	svc, _ := newEmployeeService(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, AddInput{Name: "Jane", Email: "jane@x.com", Password: "secret1", Department: "Eng"})
	require.NoError(t, err)
	a, err := svc.Login(ctx, "jane@x.com", "secret1")
	require.NoError(t, err)
	b, err := svc.Login(ctx, "jane@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, a.Refresh.Raw, true))
	_, err = svc.Refresh(ctx, b.Refresh.Raw)
	assert.Equal(t, KindAuthorization, KindOf(err))
}

func TestSeedAdmin(t *testing.T) {
	svc, st := newEmployeeService(t)
	ctx := context.Background()

	created, err := svc.SeedAdmin(ctx, "Administrator", "Admin@Company.com", "admin123", "Management")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.SeedAdmin(ctx, "Administrator", "admin@company.com", "other", "Management")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.SeedAdmin(ctx, "Administrator", "", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := st.FindUserByEmail(ctx, "admin@company.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	_, err = svc.Get(ctx, 999)
	requireKind(t, err, KindNotFound, "User not found")
}

func TestHealthStats(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	u := model.User{Name: "A", Email: "a@x.com", PasswordHash: "x"}
	require.NoError(t, st.InsertUser(ctx, &u))

	h := NewHealthService(st, "elms_db")
	h.Now = func() time.Time { return time.Date(2025, 5, 20, 8, 4, 5, 0, time.UTC) }
	rep, err := h.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, HealthReport{Database: "elms_db", TotalUsers: 1, TotalLeaves: 0, Timestamp: "2025-05-20 08:04:05"}, rep)
}
