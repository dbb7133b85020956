package service

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the requested entity does not exist on the
// service. It is wrapped by the *Error returned for 404 responses, so
// errors.Is(err, ErrNotFound) works on any lookup failure.
var ErrNotFound = errors.New("entity not found")

// Error is a failed OData request. Code and Message carry the service's
// error envelope when the response body contained one.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		if e.Code != "" {
			return fmt.Sprintf("odata request failed: %d %s: %s", e.StatusCode, e.Code, e.Message)
		}
		return fmt.Sprintf("odata request failed: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("odata request failed: status %d", e.StatusCode)
}

// Unwrap exposes ErrNotFound for 404 responses.
func (e *Error) Unwrap() error {
	if e.StatusCode == 404 {
		return ErrNotFound
	}
	return nil
}
