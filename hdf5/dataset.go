package hdf5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/h5stream/internal/dtype"
	"github.com/robert-malhotra/h5stream/internal/layout"
	"github.com/robert-malhotra/h5stream/internal/message"
	"github.com/robert-malhotra/h5stream/internal/object"
)

// Dataset represents a one-dimensional chunked HDF5 dataset.
type Dataset struct {
	file      *File
	name      string
	addr      uint64 // Object header address
	chunkSize int    // Reserved message bytes in the object header

	dtype    *Datatype
	dtypeMsg *message.Datatype
	space    *message.Dataspace
	fill     *message.FillValue
	layout   *message.DataLayout
	attrs    []*message.Attribute

	// chunks is nil for datasets of read-only files.
	chunks *layout.ChunkWriter
}

// openDatasetAt opens a dataset at the given address.
func (f *File) openDatasetAt(address uint64, name string) (*Dataset, error) {
	header, err := object.Read(f.reader, address)
	if err != nil {
		return nil, fmt.Errorf("reading object header: %w", err)
	}
	if !header.IsDataset() {
		return nil, ErrNotDataset
	}

	ds := &Dataset{
		file:      f,
		name:      name,
		addr:      address,
		chunkSize: header.ChunkSize,
		dtypeMsg:  header.Datatype(),
		space:     header.Dataspace(),
		fill:      header.FillValue(),
		layout:    header.DataLayout(),
		attrs:     header.Attributes(),
	}

	if ds.space.Rank() != 1 {
		return nil, fmt.Errorf("%w: rank %d dataset", ErrUnsupported, ds.space.Rank())
	}
	if !ds.layout.IsChunked() {
		return nil, fmt.Errorf("%w: layout class %d", ErrUnsupported, ds.layout.Class)
	}
	if ds.dtype, err = dtype.FromMessage(ds.dtypeMsg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if _, err := ds.reader(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Name returns the dataset name.
func (d *Dataset) Name() string {
	return d.name
}

// Path returns the full path to this dataset.
func (d *Dataset) Path() string {
	return "/" + d.name
}

// Len returns the current length of the dataset.
func (d *Dataset) Len() uint64 {
	d.file.mu.Lock()
	defer d.file.mu.Unlock()
	return d.space.Dimensions[0]
}

// MaxLen returns the maximum length, Unlimited for growable datasets.
func (d *Dataset) MaxLen() uint64 {
	if d.space.MaxDims == nil {
		return d.Len()
	}
	return d.space.MaxDims[0]
}

// ChunkLen returns the number of elements per chunk.
func (d *Dataset) ChunkLen() uint32 {
	return d.layout.ChunkShape()[0]
}

// Datatype returns the element datatype.
func (d *Dataset) Datatype() *Datatype {
	return d.dtype
}

// ElementSize returns the size of one element in bytes.
func (d *Dataset) ElementSize() int {
	return int(d.dtype.Size)
}

// FillValue returns the encoded element unwritten elements read as.
func (d *Dataset) FillValue() []byte {
	if d.fill == nil || !d.fill.Defined {
		return d.dtype.Zero()
	}
	return append([]byte(nil), d.fill.Value...)
}

// Attrs returns the dataset's string attributes.
func (d *Dataset) Attrs() map[string]string {
	out := make(map[string]string, len(d.attrs))
	for _, a := range d.attrs {
		if v, ok := a.StringValue(); ok {
			out[a.Name] = v
		}
	}
	return out
}

// Attr returns a string attribute by name.
func (d *Dataset) Attr(name string) (string, bool) {
	for _, a := range d.attrs {
		if a.Name == name {
			return a.StringValue()
		}
	}
	return "", false
}

// Read reads every element.
func (d *Dataset) Read() ([]byte, error) {
	d.file.mu.Lock()
	defer d.file.mu.Unlock()
	return d.readRange(0, d.space.Dimensions[0])
}

// ReadRange reads count elements starting at start.
func (d *Dataset) ReadRange(start, count uint64) ([]byte, error) {
	d.file.mu.Lock()
	defer d.file.mu.Unlock()
	return d.readRange(start, count)
}

// ElementType returns a Go type with the element layout. Compound members
// become exported fields, enums their base integer type, and gaps become
// XPad byte arrays.
func (d *Dataset) ElementType() (reflect.Type, error) {
	t, err := dtype.GoType(d.dtype)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return t, nil
}

// ReadValues reads every element into a new slice of ElementType, for
// callers that do not have the Go type the records were written from.
func (d *Dataset) ReadValues() (any, error) {
	t, err := d.ElementType()
	if err != nil {
		return nil, err
	}
	data, err := d.Read()
	if err != nil {
		return nil, err
	}

	n := len(data) / d.ElementSize()
	values := reflect.MakeSlice(reflect.SliceOf(t), n, n)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, values.Interface()); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", d.name, err)
	}
	return values.Interface(), nil
}

func (d *Dataset) readRange(start, count uint64) ([]byte, error) {
	if err := d.file.check(); err != nil {
		return nil, err
	}
	r, err := d.reader()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadRange(start, count, d.space.Dimensions[0])
	if err != nil {
		if errors.Is(err, layout.ErrOutOfRange) {
			return nil, fmt.Errorf("%w: %v", ErrOutOfRange, err)
		}
		return nil, fmt.Errorf("reading %s: %w", d.name, err)
	}
	return data, nil
}

func (d *Dataset) reader() (*layout.Chunked, error) {
	var fill []byte
	if d.fill != nil && d.fill.Defined {
		fill = d.fill.Value
	}
	r, err := layout.NewChunked(d.file.reader, d.layout, fill)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return r, nil
}
