package stream

import (
	"errors"
	"fmt"
	"sync"

	"github.com/robert-malhotra/h5stream/hdf5"
	"github.com/robert-malhotra/h5stream/typedesc"
)

// Creator creates growable datasets. *hdf5.Group implements it.
type Creator interface {
	CreateGrowableDataset(name string, dt *hdf5.Datatype, opts ...hdf5.DatasetOption) (*hdf5.Dataset, error)
}

// Stream is an append-only sequence of records of one type, stored in one
// dataset. It is safe for concurrent use; concurrent appends land in the
// order they acquire the stream.
type Stream struct {
	mu   sync.Mutex
	desc *typedesc.Descriptor
	ds   *hdf5.Dataset
	n    uint64
	err  error
}

// New creates the dataset for desc under parent and returns a stream over
// it. It fails with hdf5.ErrExists if parent already holds a dataset of
// that name.
func New(parent Creator, desc *typedesc.Descriptor, opts ...Option) (*Stream, error) {
	if desc == nil {
		return nil, ErrNoDescriptor
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	name := o.name
	if name == "" {
		name = desc.Name
	}

	dsOpts := []hdf5.DatasetOption{
		hdf5.WithChunkLen(o.chunkLen),
		hdf5.WithFillValue(desc.Zero()),
		hdf5.WithAttribute(GoTypeAttr, desc.QualifiedName()),
	}
	for _, a := range o.attrs {
		dsOpts = append(dsOpts, hdf5.WithAttribute(a[0], a[1]))
	}

	ds, err := parent.CreateGrowableDataset(name, desc.Datatype, dsOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating stream %s: %w", name, err)
	}
	return &Stream{desc: desc, ds: ds, n: ds.Len()}, nil
}

// Append encodes rec and appends it. rec must be a value of the
// descriptor's Go type or a pointer to one.
func (s *Stream) Append(rec any) error {
	data, err := s.desc.Encode(rec)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Name(), err)
	}
	return s.AppendRaw(data)
}

// AppendRaw appends one already encoded record.
func (s *Stream) AppendRaw(data []byte) error {
	if len(data) != int(s.desc.Size) {
		return fmt.Errorf("%w: %s: %d bytes, want %d", ErrTypeMismatch, s.Name(), len(data), s.desc.Size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return fmt.Errorf("%w: %w", ErrBroken, s.err)
	}

	l := s.n
	if err := s.ds.Extend(l + 1); err != nil {
		return s.fail(l, err)
	}
	if err := s.ds.WriteSlab(l, data); err != nil {
		return s.fail(l, err)
	}
	s.n = l + 1
	return nil
}

// fail records the first failure. The caller holds s.mu.
func (s *Stream) fail(at uint64, err error) error {
	err = fmt.Errorf("appending %s[%d]: %w", s.Name(), at, err)
	s.err = err
	return err
}

// ReadAt decodes the record at index i into out, a pointer to the
// descriptor's Go type.
func (s *Stream) ReadAt(i uint64, out any) error {
	data, err := s.ds.ReadRange(i, 1)
	if err != nil {
		return fmt.Errorf("reading %s[%d]: %w", s.Name(), i, err)
	}
	return s.desc.Decode(data, out)
}

// Len returns the number of records appended.
func (s *Stream) Len() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Err returns the failure that broke the stream, or nil.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Name returns the dataset name.
func (s *Stream) Name() string {
	return s.ds.Name()
}

// Descriptor returns the record descriptor.
func (s *Stream) Descriptor() *typedesc.Descriptor {
	return s.desc
}

// Dataset returns the underlying dataset.
func (s *Stream) Dataset() *hdf5.Dataset {
	return s.ds
}

// IsExists reports whether err is a dataset name collision.
func IsExists(err error) bool {
	return errors.Is(err, hdf5.ErrExists)
}
