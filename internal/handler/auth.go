package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leave-management/internal/middleware"
	"github.com/iliyamo/leave-management/internal/model"
	"github.com/iliyamo/leave-management/internal/service"
)

// AuthHandler serves login and session endpoints.
type AuthHandler struct {
	Svc *service.EmployeeService
}

func NewAuthHandler(svc *service.EmployeeService) *AuthHandler {
	return &AuthHandler{Svc: svc}
}

// ----- DTOs -----

// loginReq accepts form or JSON credentials.
type loginReq struct {
	Email    field `json:"email" form:"email"`       // account email, case-insensitive
	Password field `json:"password" form:"password"` // plain text password
}

// tokenReq is shared by refresh and logout.
type tokenReq struct {
	RefreshToken field `json:"refresh_token" form:"refresh_token"` // raw refresh token
	All          flag  `json:"all" form:"all"`                     // logout: revoke every session of the user
}

// tokenPart is one issued token with its expiry.
type tokenPart struct {
	Token   string    `json:"token"`   // opaque to the client
	Expires time.Time `json:"expires"` // UTC
}

// sessionData is the login payload: the user record, without its
// credential, plus the issued tokens.
type sessionData struct {
	model.User
	Role    string    `json:"role"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func newSessionData(s service.Session) sessionData {
	return sessionData{
		User:    s.User,
		Role:    s.User.Role(),
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp},
	}
}

// Login: verify credentials and return the user with a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return failMsg(c, "Invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Svc.Login(ctx, req.Email.String(), req.Password.String())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Login successful", newSessionData(sess))
}

// Refresh: rotate the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil {
		return failMsg(c, "Invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Svc.Refresh(ctx, req.RefreshToken.String())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Token refreshed", newSessionData(sess))
}

// Logout revokes the presented refresh token, or all of the user's tokens
// when all=true.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil {
		return failMsg(c, "Invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Logout(ctx, req.RefreshToken.String(), bool(req.All)); err != nil {
		return fail(c, err)
	}
	return ok(c, "Logged out successfully", nil)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, found := middleware.UserID(c)
	if !found {
		return failMsg(c, "Unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Svc.Get(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "User retrieved successfully", u)
}
