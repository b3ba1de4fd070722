package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/leave-management/internal/model"
	"github.com/iliyamo/leave-management/internal/repository"
	"github.com/iliyamo/leave-management/internal/utils"
	"github.com/iliyamo/leave-management/internal/validate"
)

// Account field bounds.  Text fields count characters; the password counts
// bytes because bcrypt ignores anything past 72.
const (
	PasswordMin      = 6
	PasswordMaxBytes = 72
	NameMax          = 100
	EmailMax         = 255
	DepartmentMax    = 100
)

// UserStore is the slice of the data store the account workflows need.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
	FindUserByID(ctx context.Context, id uint64) (model.User, error)
	InsertUser(ctx context.Context, u *model.User) error
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error

	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// TokenConfig controls the session tokens issued on login.
type TokenConfig struct {
	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int
}

// EmployeeService manages accounts and sessions.
type EmployeeService struct {
	Store      UserStore
	BcryptCost int
	Tokens     TokenConfig
}

func NewEmployeeService(store UserStore, bcryptCost int, tokens TokenConfig) *EmployeeService {
	return &EmployeeService{Store: store, BcryptCost: bcryptCost, Tokens: tokens}
}

// AddInput carries the fields of a new employee.
type AddInput struct {
	Name       string
	Email      string
	Password   string
	Department string
}

// Add creates a non-admin account.
func (s *EmployeeService) Add(ctx context.Context, in AddInput) (model.User, error) {
	if err := validate.RequireFields([]string{"name", "email", "password", "department"}, map[string]string{
		"name":       in.Name,
		"email":      in.Email,
		"password":   in.Password,
		"department": in.Department,
	}); err != nil {
		return model.User{}, validation(err.Error())
	}
	email := validate.SanitizeText(in.Email)
	if !validate.Email(email) {
		return model.User{}, validation("Invalid email format")
	}
	if len(in.Password) < PasswordMin {
		return model.User{}, validation("Password must be at least 6 characters")
	}
	if len(in.Password) > PasswordMaxBytes {
		return model.User{}, validation(fmt.Sprintf("Password must be at most %d bytes", PasswordMaxBytes))
	}
	name := validate.SanitizeText(in.Name)
	department := validate.SanitizeText(in.Department)
	for _, b := range []struct {
		label, value string
		max          int
	}{
		{"Name", name, NameMax},
		{"Email", email, EmailMax},
		{"Department", department, DepartmentMax},
	} {
		if validate.Length(b.value) > b.max {
			return model.User{}, validation(fmt.Sprintf("%s must be at most %d characters", b.label, b.max))
		}
	}

	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return model.User{}, internal("Failed to add employee", err)
	}
	u := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Department:   department,
	}
	if err := s.Store.InsertUser(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, conflict("Email already exists")
		}
		return model.User{}, internal("Failed to add employee", err)
	}
	return u, nil
}

// Session is the outcome of a successful login or refresh.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

var errBadCredentials = &Error{Kind: KindValidation, Message: "Invalid email or password"}

// Login checks email and password and opens a session.  An unknown email and
// a wrong password produce the same message.  Accounts still holding a legacy
// digest are upgraded to bcrypt on their first successful login.
func (s *EmployeeService) Login(ctx context.Context, email, password string) (Session, error) {
	email = validate.SanitizeText(email)
	if email == "" || password == "" {
		return Session{}, validation("Email and password are required")
	}
	if !validate.Email(email) {
		return Session{}, validation("Invalid email format")
	}
	// no stored hash can match a password bcrypt would refuse
	if len(password) > PasswordMaxBytes {
		return Session{}, errBadCredentials
	}

	u, err := s.Store.FindUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, errBadCredentials
	}
	if err != nil {
		return Session{}, internal("Login failed", err)
	}
	ok, rehash := utils.VerifyPassword(u.PasswordHash, password)
	if !ok {
		return Session{}, errBadCredentials
	}
	if rehash {
		if h, err := utils.HashPassword(password, s.BcryptCost); err == nil {
			if err := s.Store.UpdatePasswordHash(ctx, u.ID, h); err != nil {
				log.Printf("login: rehash for user %d failed: %v", u.ID, err)
			} else {
				u.PasswordHash = h
			}
		}
	}
	return s.issue(ctx, u)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *EmployeeService) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, validation("Refresh token is required")
	}
	hash := utils.HashRefreshRaw(raw)
	uid, err := s.Store.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrTokenInvalid) {
		return Session{}, forbidden("Invalid or expired refresh token")
	}
	if err != nil {
		return Session{}, internal("Refresh failed", err)
	}
	u, err := s.Store.FindUserByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, forbidden("Invalid or expired refresh token")
	}
	if err != nil {
		return Session{}, internal("Refresh failed", err)
	}
	if err := s.Store.RevokeByHash(ctx, hash); err != nil {
		return Session{}, internal("Refresh failed", err)
	}
	return s.issue(ctx, u)
}

// Logout revokes one refresh token, or every token of the user when all is set.
func (s *EmployeeService) Logout(ctx context.Context, raw string, all bool) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return validation("Refresh token is required")
	}
	hash := utils.HashRefreshRaw(raw)
	if all {
		uid, err := s.Store.ValidateRefresh(ctx, hash)
		if errors.Is(err, repository.ErrTokenInvalid) {
			return forbidden("Invalid or expired refresh token")
		}
		if err != nil {
			return internal("Logout failed", err)
		}
		if err := s.Store.RevokeAllForUser(ctx, uid); err != nil {
			return internal("Logout failed", err)
		}
		return nil
	}
	if err := s.Store.RevokeByHash(ctx, hash); err != nil {
		return internal("Logout failed", err)
	}
	return nil
}

// Get returns the account with id.
func (s *EmployeeService) Get(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.Store.FindUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, notFound("User not found")
	}
	if err != nil {
		return model.User{}, internal("Failed to load user", err)
	}
	return u, nil
}

// SeedAdmin creates the administrator account unless one with the same email
// already exists.  It reports whether an account was created.
func (s *EmployeeService) SeedAdmin(ctx context.Context, name, email, password, department string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}
	_, err := s.Store.FindUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	hash, err := utils.HashPassword(password, s.BcryptCost)
	if err != nil {
		return false, err
	}
	u := model.User{Name: name, Email: email, PasswordHash: hash, Department: department, IsAdmin: true}
	if err := s.Store.InsertUser(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *EmployeeService) issue(ctx context.Context, u model.User) (Session, error) {
	at, err := utils.NewAccessToken(s.Tokens.Secret, u.ID, u.Role(), s.Tokens.AccessTTLMin)
	if err != nil {
		return Session{}, internal("Failed to issue token", err)
	}
	rt, err := utils.NewRefreshToken(s.Tokens.RefreshTTLDays)
	if err != nil {
		return Session{}, internal("Failed to issue token", err)
	}
	if err := s.Store.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return Session{}, internal("Failed to issue token", err)
	}
	return Session{User: u, Access: at, Refresh: rt}, nil
}
