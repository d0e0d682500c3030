// Package apierr is the error type services return when a failure maps
// to a specific HTTP response: handlers unwrap it with errors.As and
// use Status and Code for the envelope instead of a blanket 500.
package apierr

import "fmt"

// Error carries the HTTP status and a stable machine-readable code
// alongside the wrapped cause.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
