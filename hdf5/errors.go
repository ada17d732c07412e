// Package hdf5 reads and writes the subset of HDF5 needed for growable,
// chunked, one-dimensional datasets of fixed-size records.
package hdf5

import "errors"

// Common errors
var (
	ErrNotHDF5     = errors.New("not an HDF5 file")
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrUnsupported = errors.New("unsupported feature")
	ErrInvalidName = errors.New("invalid object name")
	ErrClosed      = errors.New("file is closed")
	ErrReadOnly    = errors.New("file is not writable")
	ErrExists      = errors.New("object already exists")
	ErrShrink      = errors.New("dataset cannot shrink")
	ErrOutOfRange  = errors.New("selection outside dataset extent")
	ErrChunkLen    = errors.New("invalid chunk length")
)
