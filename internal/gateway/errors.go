package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTransport marks failures where no HTTP response was received.
var ErrTransport = errors.New("gateway: transport failure")

// APIError is a non-2xx response from the backend.
// Data holds the parsed JSON body, or nil when the body was not JSON.
type APIError struct {
	Status     int
	StatusText string
	Data       any
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.StatusText, msg)
	}
	return fmt.Sprintf("api error %d %s", e.Status, e.StatusText)
}

// Message returns the "message" field of the error body, if any.
func (e *APIError) Message() string {
	body, ok := e.Data.(map[string]any)
	if !ok {
		return ""
	}
	switch m := body["message"].(type) {
	case string:
		return m
	case []any:
		// validation pipes on the backend return a list of messages
		if len(m) > 0 {
			if s, ok := m[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// TransportError wraps DNS, connection, timeout and cancellation failures.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransport) match any TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
