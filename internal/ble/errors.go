package ble

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound means the target could not be reached within the
	// connect timeout or is unknown to the Bluetooth stack.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrTransport covers radio and link failures during connect or write.
	ErrTransport = errors.New("transport error")
)

// ErrorKind classifies a failed transaction.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindDeviceNotFound
	KindTransport
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindDeviceNotFound:
		return "DeviceNotFound"
	case KindTransport:
		return "TransportError"
	default:
		return "Unexpected"
	}
}

// Error is a transaction failure with the step that produced it.
type Error struct {
	Kind ErrorKind
	Op   string // "enable", "connect", "discover", "write"
	Addr string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ble: %s %s: %s: %v", e.Op, e.Addr, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrDeviceNotFound:
		return e.Kind == KindDeviceNotFound
	case ErrTransport:
		return e.Kind == KindTransport
	}
	return false
}

// Classify maps an arbitrary error onto the taxonomy. nil is KindNone.
func Classify(err error) ErrorKind {
	var be *Error
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &be):
		return be.Kind
	case errors.Is(err, ErrDeviceNotFound), errors.Is(err, context.DeadlineExceeded):
		return KindDeviceNotFound
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindUnexpected
	}
}

// Result is the outcome of one transaction.
type Result struct {
	Success bool
	Kind    ErrorKind
	Err     error
}

// Succeeded is the result of a transaction that wrote its packet.
func Succeeded() Result { return Result{Success: true} }

// Failed wraps err in a failed Result, classifying it.
func Failed(err error) Result {
	kind := Classify(err)
	if kind == KindNone {
		kind = KindUnexpected
	}
	return Result{Kind: kind, Err: err}
}

func (r Result) String() string {
	if r.Success {
		return "ok"
	}
	return r.Kind.String()
}
