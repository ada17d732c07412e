package writer

import "errors"

var (
	// ErrClosed is returned by operations on a closed Writer.
	ErrClosed = errors.New("writer closed")

	// ErrCollision is returned when a record type maps to a dataset name
	// already used by another type.
	ErrCollision = errors.New("dataset name collision")

	// ErrInvalidName is returned for empty names or names with path
	// separators.
	ErrInvalidName = errors.New("invalid writer name")

	// ErrNilRecord is returned by Write(nil).
	ErrNilRecord = errors.New("nil record")
)
