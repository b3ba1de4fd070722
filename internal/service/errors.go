// Package service holds the leave and employee workflows.  Every failure is
// returned as an *Error whose Kind tells the transport how to react and whose
// Message is safe to show to the caller.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Error is a classified, user-presentable failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }
func notFound(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func forbidden(msg string) error  { return &Error{Kind: KindAuthorization, Message: msg} }
func conflict(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }

// internal wraps a store failure, keeping the cause in the message.
func internal(prefix string, err error) error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf("%s: %v", prefix, err), Err: err}
}

// KindOf reports the Kind of err.  Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
