package modrelease

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the packages of this module
// matches exactly one of them with errors.Is.
var (
	ErrNetwork = errors.New("network error")
	ErrIO      = errors.New("io error")
	ErrParse   = errors.New("parse error")
	ErrAuth    = errors.New("auth error")
)

var (
	ErrUnknownChannel      = errors.New("unknown channel")
	ErrNoArtifact          = errors.New("no matching release asset")
	ErrInvalidArtifactName = errors.New("invalid artifact name")
)

// Error records a failed operation on a target (URL, path or component).
type Error struct {
	Op     string
	Target string
	Kind   error
	Err    error
}

// Errorf is a shorthand for building an *Error with a formatted cause.
func Errorf(kind error, op, target, format string, args ...interface{}) *Error {
	return &Error{
		Op:     op,
		Target: target,
		Kind:   kind,
		Err:    fmt.Errorf(format, args...),
	}
}

// Wrap returns err annotated with op, target and kind.
// A nil err stays nil.
func Wrap(kind error, op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Target: target, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Target, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
