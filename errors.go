package libevents

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNilListener      = errors.New("listener is nil")
	ErrNotFunc          = errors.New("listener is not a function")
	ErrVariadicListener = errors.New("listener has a variadic signature")

	ErrMalformedFrame   = errors.New("malformed frame")
	ErrNoRoute          = errors.New("no route for event")
	ErrArity            = errors.New("argument count mismatch")
	ErrDecode           = errors.New("cannot decode argument")
	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrTerminated       = errors.New("program exit")
	ErrRateLimit        = errors.New("rate limit exceeded")
)

// ErrInvalidListener is returned when a callable cannot be registered.
type ErrInvalidListener struct {
	err   error
	event string
}

func (e ErrInvalidListener) Error() string {
	return fmt.Sprintf("invalid listener for event %q: %s", e.event, e.err)
}

func (e ErrInvalidListener) Unwrap() error { return e.err }

// Event returns the name the listener was being registered under.
func (e ErrInvalidListener) Event() string { return e.event }

func wrapErrInvalidListener(err error, event string) error {
	if err == nil {
		return nil
	}
	return &ErrInvalidListener{err: err, event: event}
}
