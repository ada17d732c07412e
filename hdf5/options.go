package hdf5

import "math"

const (
	// DefaultChunkLen is the number of elements per chunk when none is given.
	DefaultChunkLen = 8

	// MaxChunkLen bounds the number of elements per chunk.
	MaxChunkLen = 1 << 24

	// maxChunkBytes is the largest chunk a v1 B-tree entry can describe.
	maxChunkBytes = math.MaxUint32
)

// FileOption configures file creation options.
type FileOption func(*fileOptions)

type fileOptions struct {
	superblockVersion uint8
	sync              bool
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		superblockVersion: 3,
	}
}

// WithSuperblockVersion selects superblock version 2 or 3. Other values are
// ignored.
func WithSuperblockVersion(v int) FileOption {
	return func(o *fileOptions) {
		if v == 2 || v == 3 {
			o.superblockVersion = uint8(v)
		}
	}
}

// WithSync makes every committed change fsync the file.
func WithSync(sync bool) FileOption {
	return func(o *fileOptions) {
		o.sync = sync
	}
}

// DatasetOption configures dataset creation options.
type DatasetOption func(*datasetOptions)

// attrDef holds an attribute definition for creation.
type attrDef struct {
	name  string
	value string
}

type datasetOptions struct {
	chunkLen   uint32
	fill       []byte
	attributes []attrDef
}

func defaultDatasetOptions() *datasetOptions {
	return &datasetOptions{
		chunkLen: DefaultChunkLen,
	}
}

// WithChunkLen sets the number of elements per chunk. Zero is ignored.
func WithChunkLen(n uint32) DatasetOption {
	return func(o *datasetOptions) {
		if n > 0 {
			o.chunkLen = n
		}
	}
}

// WithFillValue sets the encoded element that unwritten elements read as.
// It must be exactly one element long. The default is all zero bytes.
func WithFillValue(fill []byte) DatasetOption {
	return func(o *datasetOptions) {
		o.fill = fill
	}
}

// WithAttribute adds a string attribute to the dataset.
// Multiple WithAttribute options can be used to add multiple attributes.
func WithAttribute(name, value string) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}
