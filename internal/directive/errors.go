package directive

import "errors"

// Domain errors for the directive package.
//
// These never reach the voice assistant verbatim. They are logged and mapped to
// a protocol error type by the Exchange.
var (
	// ErrNoBackend is returned when a dispatcher is created without a backend.
	ErrNoBackend = errors.New("directive: backend is required")

	// ErrInvalidConcurrency is returned for a negative concurrency limit.
	ErrInvalidConcurrency = errors.New("directive: max concurrency must not be negative")

	// ErrInvalidPropertyMap is returned when the endpoint cookie cannot be decoded.
	ErrInvalidPropertyMap = errors.New("directive: invalid property map")

	// ErrInvalidItemState is returned when a fetched item holds a NULL/UNDEF state.
	ErrInvalidItemState = errors.New("directive: invalid item state")

	// ErrUndefinedProperty is returned when a context property has no defined value.
	ErrUndefinedProperty = errors.New("directive: undefined context property")

	// ErrInvalidPayload is returned when a directive payload cannot be decoded.
	ErrInvalidPayload = errors.New("directive: invalid payload")

	// errOutOfRange marks a payload value outside its accepted range.
	errOutOfRange = errors.New("directive: value out of range")
)
