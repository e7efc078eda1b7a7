package apiclient

import (
	"errors"
	"fmt"
)

// UnknownResponseMessage is shown when a failed response carries no readable body.
const UnknownResponseMessage = "Unknown response"

// APIError is a non-2xx response from the airline API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NetworkError means the request never produced a response: DNS, refused
// connection, timeout or cancellation.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error on %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Message returns the human-readable text for err suitable for a notification.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "Unable to reach the airline API"
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Status returns the HTTP status carried by err, or 0 when there is none.
func Status(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
