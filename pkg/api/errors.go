package api

import (
	"errors"
	"fmt"
)

// ErrUserNotFound is returned when the service has no user with the requested id.
var ErrUserNotFound = errors.New("user not found")

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
	}

	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// DecodeError is returned when a response body isn't the JSON the client expected.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding response from %s: %s", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
