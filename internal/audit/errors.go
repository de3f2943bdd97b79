package audit

import "errors"

// Domain errors for the audit package.
var (
	// ErrInvalidEntry is returned when an entry lacks its directive header or outcome.
	ErrInvalidEntry = errors.New("audit: invalid entry")

	// ErrWriterClosed is returned by Enqueue after Close.
	ErrWriterClosed = errors.New("audit: writer closed")
)
