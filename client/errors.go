package client

import (
	"errors"
	"fmt"

	"github.com/luma/rcon/protocol"
)

// Kind classifies every error returned by this package so callers can branch
// without inspecting concrete types.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from this package.
	KindUnknown Kind = iota

	// KindInvalidArgument is a caller mistake detected before any I/O.
	KindInvalidArgument

	// KindAuthRejected means the server refused the password. The socket is
	// left open for the caller to close.
	KindAuthRejected

	// KindMalformed means the stream ended in the middle of a frame.
	KindMalformed

	// KindTransport wraps socket errors: refused, reset, timeout, closed.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindAuthRejected:
		return "authentication rejected"
	case KindMalformed:
		return "malformed packet"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidArgument = errors.New("Invalid argument")
	ErrAuthRejected    = errors.New("Password rejected by server")
	ErrMalformed       = errors.New("Cannot read the whole packet")
	ErrTransport       = errors.New("Transport error")
	ErrNotConnected    = errors.New("Not connected")
	ErrPayloadTooLong  = fmt.Errorf("Payload too long: %w", ErrInvalidArgument)
	ErrEmptyPayload    = fmt.Errorf("Payload can't be empty: %w", ErrInvalidArgument)
)

// Error is the error type returned by Conn and Session.
type Error struct {
	Kind Kind

	// Op is the operation that failed, e.g. "connect" or "command".
	Op string

	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("rcon %s: %s", e.Op, e.Kind)
	}

	return fmt.Sprintf("rcon %s: %s", e.Op, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAuthRejected) and friends match on the kind even
// when the wrapped error is a lower level one.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return e.Kind == KindInvalidArgument
	case ErrAuthRejected:
		return e.Kind == KindAuthRejected
	case ErrMalformed:
		return e.Kind == KindMalformed
	case ErrTransport:
		return e.Kind == KindTransport
	}

	return false
}

// KindOf returns the Kind of err, or KindUnknown when err was not produced by
// this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

func invalidArgument(op string, err error) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: err}
}

// readError classifies a failure that happened while waiting for a reply.
func readError(op string, err error) error {
	if errors.Is(err, protocol.ErrMalformedPacket) {
		return &Error{Kind: KindMalformed, Op: op, Err: err}
	}

	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func transportError(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}
