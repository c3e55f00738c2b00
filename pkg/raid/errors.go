package raid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTarget is returned when a device selector is not an MD device.
	ErrInvalidTarget = errors.New("not a valid MD device")

	// ErrReadTimeout is returned when a sysfs read exceeds its time budget.
	ErrReadTimeout = errors.New("timeout on getting information")

	// ErrTargetGone is returned when an array vanished between discovery and read.
	ErrTargetGone = errors.New("MD device disappeared")

	// ErrInternal marks any other failure while evaluating an array.
	ErrInternal = errors.New("unexpected error")
)

// ErrorKind classifies an Error.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindConfig
	KindReadTimeout
	KindTargetGone
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindConfig:
		return ErrInvalidTarget
	case KindReadTimeout:
		return ErrReadTimeout
	case KindTargetGone:
		return ErrTargetGone
	}
	return ErrInternal
}

// Error carries the kind of failure plus the array and path it concerns.
// errors.Is matches it against the sentinel of its kind.
type Error struct {
	Kind   ErrorKind
	Target string
	Path   string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Target != "" {
		msg = e.Target + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func newError(kind ErrorKind, target, path string, err error) *Error {
	return &Error{Kind: kind, Target: target, Path: path, Err: err}
}

// KindOf returns the kind of err, KindInternal if it is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Describe formats a fatal per-array failure for a status line.
func Describe(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindInternal && e.Target != "" {
		cause := e.Err
		if cause == nil {
			cause = ErrInternal
		}
		return fmt.Sprintf("Unknown %T error on getting information about %q: %v", cause, e.Target, cause)
	}
	return err.Error()
}
