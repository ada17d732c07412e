package typedesc

import "errors"

var (
	// ErrUnsupportedType is returned for Go types with no HDF5 equivalent.
	ErrUnsupportedType = errors.New("unsupported record type")

	// ErrAnonymousType is returned for unnamed record types that do not
	// implement TypeNamer.
	ErrAnonymousType = errors.New("anonymous record type needs a TypeName method")

	// ErrInvalidEnum is returned for malformed enum value tables.
	ErrInvalidEnum = errors.New("invalid enum values")

	// ErrAlreadyResolved is returned when registering enum values for a
	// type that a descriptor already depends on.
	ErrAlreadyResolved = errors.New("type already resolved")

	// ErrTypeMismatch is returned when a value of the wrong Go type is
	// encoded or decoded.
	ErrTypeMismatch = errors.New("record type mismatch")

	// ErrShortBuffer is returned when decoding from too few bytes.
	ErrShortBuffer = errors.New("buffer too short")
)
