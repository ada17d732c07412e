package hdf5

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/robert-malhotra/h5stream/internal/alloc"
	"github.com/robert-malhotra/h5stream/internal/binary"
	"github.com/robert-malhotra/h5stream/internal/message"
	"github.com/robert-malhotra/h5stream/internal/object"
	"github.com/robert-malhotra/h5stream/internal/superblock"
)

// File represents an open HDF5 file. It is safe for concurrent use; all
// operations on the file and its objects are serialized.
type File struct {
	mu         sync.Mutex
	path       string
	file       *os.File
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	closed     bool

	// Write support fields
	writable  bool
	sync      bool
	allocator *alloc.Allocator
}

// Open opens an HDF5 file for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	sb, err := superblock.Read(f)
	if err != nil {
		f.Close()
		if errors.Is(err, superblock.ErrNotHDF5) {
			return nil, fmt.Errorf("%w: %s", ErrNotHDF5, path)
		}
		return nil, fmt.Errorf("reading superblock: %w", err)
	}

	hdf := &File{
		path:       path,
		file:       f,
		reader:     binary.NewReader(f, sb.Config()),
		superblock: sb,
	}

	root, err := hdf.openGroupAt(sb.RootGroupAddress)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	hdf.root = root

	return hdf, nil
}

// Close flushes a writable file and closes it. Closing twice is a no-op.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	if f.writable {
		if err := f.flushLocked(); err != nil {
			f.file.Close()
			return err
		}
	}
	return f.file.Close()
}

// Root returns the root group of the file.
func (f *File) Root() *Group {
	return f.root
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Version returns the superblock version.
func (f *File) Version() int {
	return int(f.superblock.Version)
}

// IsWritable returns true if the file was created for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// Size returns the end-of-file address recorded for the file.
func (f *File) Size() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writable {
		return f.allocator.EOF()
	}
	return f.superblock.EOFAddress
}

// OpenDataset opens a dataset by path, e.g. "/Point".
func (f *File) OpenDataset(path string) (*Dataset, error) {
	parts := splitPath(path)
	switch len(parts) {
	case 0:
		return nil, ErrNotDataset
	case 1:
		return f.root.Dataset(parts[0])
	}
	return nil, fmt.Errorf("%w: nested path %q", ErrUnsupported, path)
}

// GetAttr returns a string attribute by path.
// Path format: /object@attribute_name
func (f *File) GetAttr(path string) (string, error) {
	objectPath, attrName, err := ParseAttrPath(path)
	if err != nil {
		return "", err
	}
	ds, err := f.OpenDataset(objectPath)
	if err != nil {
		return "", fmt.Errorf("opening object %s: %w", objectPath, err)
	}
	v, ok := ds.Attr(attrName)
	if !ok {
		return "", fmt.Errorf("%w: attribute %s", ErrNotFound, attrName)
	}
	return v, nil
}

// openGroupAt opens a group at the given address.
func (f *File) openGroupAt(address uint64) (*Group, error) {
	header, err := object.Read(f.reader, address)
	if err != nil {
		return nil, fmt.Errorf("reading object header: %w", err)
	}
	if !header.IsGroup() {
		return nil, ErrNotGroup
	}
	if header.GetMessage(message.TypeSymbolTable) != nil {
		return nil, fmt.Errorf("%w: symbol table groups", ErrUnsupported)
	}

	return &Group{
		file:      f,
		addr:      address,
		chunkSize: header.ChunkSize,
		links:     header.Links(),
		datasets:  make(map[string]*Dataset),
	}, nil
}

// check returns ErrClosed once the file is closed. The caller holds f.mu.
func (f *File) check() error {
	if f.closed {
		return ErrClosed
	}
	return nil
}

// checkWritable is check plus ErrReadOnly. The caller holds f.mu.
func (f *File) checkWritable() error {
	if err := f.check(); err != nil {
		return err
	}
	if !f.writable {
		return ErrReadOnly
	}
	return nil
}
