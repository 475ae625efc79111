package remote

import (
	"errors"
	"fmt"
)

// ErrConfigMissing means no endpoint is configured. Callers show setup instructions instead of
// retrying.
var ErrConfigMissing = errors.New("remote API endpoint is not configured")

// NetworkError is a transport failure: the request never produced a readable response.
type NetworkError struct {
	Action string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Action, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError carries the server's own message, shown to the user verbatim.
type APIError struct {
	Action     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}
