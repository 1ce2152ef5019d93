// Package apperr defines the error taxonomy shared by every screen controller.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure
type Kind string

const (
	KindConfigNotFound Kind = "config_not_found"
	KindDataLoad       Kind = "data_load"
	KindMutation       Kind = "mutation"
	KindPrecondition   Kind = "precondition"
)

// Sentinels for errors.Is matching on the kind alone
var (
	ErrConfigNotFound = &Error{Kind: KindConfigNotFound}
	ErrDataLoad       = &Error{Kind: KindDataLoad}
	ErrMutation       = &Error{Kind: KindMutation}
	ErrPrecondition   = &Error{Kind: KindPrecondition}
)

// Error is returned by controller operations. Message is safe to show to the
// user; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  int // HTTP status when the server answered, 0 otherwise
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same kind, so errors.Is(err, ErrMutation) works
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// ConfigNotFound reports an entity path missing from the registry
func ConfigNotFound(op, path string) *Error {
	return &Error{Kind: KindConfigNotFound, Op: op, Message: fmt.Sprintf("no configuration registered for %q", path)}
}

// DataLoad wraps a failed read
func DataLoad(op string, err error) *Error {
	return &Error{Kind: KindDataLoad, Op: op, Message: "failed to load data", Status: statusOf(err), Err: err}
}

// Mutation wraps a failed write or an unexpected status code
func Mutation(op string, err error) *Error {
	return &Error{Kind: KindMutation, Op: op, Message: "request was not accepted by the server", Status: statusOf(err), Err: err}
}

// Precondition reports a locally blocked action that never reached the network
func Precondition(op, message string) *Error {
	return &Error{Kind: KindPrecondition, Op: op, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// UserMessage returns the user-facing text for err
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return "unexpected error"
}

type statusCoder interface {
	StatusCode() int
}

func statusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}
