// Package faults defines the stable error codes shared across the engine,
// cache, and locator, and helpers for classifying wrapped errors.
package faults

import (
	"errors"
	"fmt"
)

// Code is a stable, user-visible error code.
type Code string

const (
	// CodeNotFound: an address, channel, or thread does not resolve.
	CodeNotFound Code = "not_found"
	// CodeUnavailable: no cached data exists and the remote is unreachable.
	CodeUnavailable Code = "unavailable"
	// CodeRateLimited: the remote asked us to back off; retryable.
	CodeRateLimited Code = "rate_limited"
	// CodePartialFailure: some sub-fetches failed but enough data exists.
	CodePartialFailure Code = "partial_failure"
	// CodeFatal: malformed input or an unrecoverable remote failure.
	CodeFatal Code = "fatal"
)

// Error carries a code alongside a human-readable message and an optional
// wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, format, args...)
}

func Unavailable(format string, args ...any) *Error {
	return New(CodeUnavailable, format, args...)
}

func RateLimited(format string, args ...any) *Error {
	return New(CodeRateLimited, format, args...)
}

func Fatal(format string, args ...any) *Error {
	return New(CodeFatal, format, args...)
}

// CodeOf extracts the code from err, walking the wrap chain. Uncoded errors
// classify as fatal.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeFatal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// Retryable reports whether the call that produced err may be retried.
func Retryable(err error) bool {
	return Is(err, CodeRateLimited)
}
