package stream

import "github.com/robert-malhotra/h5stream/hdf5"

// DefaultChunkLen is the number of records per chunk.
const DefaultChunkLen = hdf5.DefaultChunkLen

// GoTypeAttr is the dataset attribute holding the package-qualified Go
// type of the records.
const GoTypeAttr = "go_type"

// Option configures a Stream.
type Option func(*options)

type options struct {
	name     string
	chunkLen uint32
	attrs    [][2]string
}

func defaultOptions() *options {
	return &options{chunkLen: DefaultChunkLen}
}

// WithName overrides the dataset name, which defaults to the descriptor name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithChunkLen sets the number of records per chunk. Zero keeps the default.
// New fails with ErrChunkLen above hdf5.MaxChunkLen.
func WithChunkLen(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkLen = n
		}
	}
}

// WithAttribute adds a string attribute to the dataset.
func WithAttribute(name, value string) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, [2]string{name, value})
	}
}
