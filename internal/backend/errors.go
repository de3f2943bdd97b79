package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for backend operations.
//
// Transport failures carrying an HTTP status are returned as *StatusError,
// which matches ErrRequestFailed via errors.Is:
//
//	if backend.IsNotFound(err) {
//	    // the item does not exist on the backend
//	}
var (
	// ErrRequestFailed is returned when the backend answers with a non-2xx status.
	ErrRequestFailed = errors.New("backend: request failed")

	// ErrUnreachable is returned when the backend cannot be contacted at all.
	ErrUnreachable = errors.New("backend: unreachable")

	// ErrInvalidItem is returned when the backend returns an item that cannot be decoded.
	ErrInvalidItem = errors.New("backend: invalid item")

	// ErrInvalidName is returned for an empty item name.
	ErrInvalidName = errors.New("backend: item name cannot be empty")
)

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	Code   int
	Method string
	Item   string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s item %q: HTTP %d", e.Method, e.Item, e.Code)
}

// Is makes StatusError match ErrRequestFailed.
func (e *StatusError) Is(target error) bool {
	return target == ErrRequestFailed
}

// IsNotFound reports whether err carries a 404 status from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
