package stream

import (
	"errors"

	"github.com/robert-malhotra/h5stream/hdf5"
	"github.com/robert-malhotra/h5stream/typedesc"
)

var (
	// ErrBroken is returned by every append after one has failed. It wraps
	// the original failure.
	ErrBroken = errors.New("stream broken by earlier failure")

	// ErrTypeMismatch is returned for records that do not match the
	// stream's descriptor.
	ErrTypeMismatch = typedesc.ErrTypeMismatch

	// ErrChunkLen is returned by New for a chunk length above
	// hdf5.MaxChunkLen or a chunk too large to index.
	ErrChunkLen = hdf5.ErrChunkLen

	// ErrNoDescriptor is returned by New without a descriptor.
	ErrNoDescriptor = errors.New("stream needs a descriptor")
)
