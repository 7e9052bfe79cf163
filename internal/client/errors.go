package client

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a 401 so callers can redirect to login instead of
// showing a generic failure.
var ErrUnauthorized = errors.New("unauthorized")

// ErrMutationInFlight is returned when a second mutation for the same
// (resource, id, action) key is attempted while one is pending.
var ErrMutationInFlight = errors.New("mutation already in flight")

// ErrEmptyMessage rejects blank comment submissions before any request is made.
var ErrEmptyMessage = errors.New("comment message is empty")

// RequestError is any non-2xx response other than 401, carrying the server's
// status and body text.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %d: %s", e.Status, e.Body)
}

// ServerMessage extracts a user-presentable message from an error chain:
// the server body for request errors, the error text otherwise.
func ServerMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Body != "" {
		return reqErr.Body
	}
	return err.Error()
}
