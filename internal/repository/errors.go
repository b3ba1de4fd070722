// Package repository is the MySQL data store for users, leave requests and
// refresh tokens.  It also defines error values that are reused by every
// implementation of the store (including the in-memory one) so that the
// service layer can distinguish failure scenarios with errors.Is.
package repository

import "errors"

// ErrNotFound is returned when a looked-up user or leave row does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when inserting a user whose email is already
// registered.  Handlers should translate this into a conflict.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenInvalid is returned when a refresh token is unknown, expired or
// revoked.
var ErrTokenInvalid = errors.New("invalid refresh token")
