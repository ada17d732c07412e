package hdf5

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/h5stream/internal/alloc"
	"github.com/robert-malhotra/h5stream/internal/binary"
	"github.com/robert-malhotra/h5stream/internal/superblock"
)

// Create creates a new HDF5 file at the given path, truncating any existing
// file. The file gets a version 3 superblock (see WithSuperblockVersion),
// version 2 object headers and an empty root group.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	osFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	sb := superblock.New(options.superblockVersion)
	cfg := sb.Config()

	f := &File{
		path:       path,
		file:       osFile,
		reader:     binary.NewReader(osFile, cfg),
		superblock: sb,
		writable:   true,
		sync:       options.sync,
		allocator:  alloc.New(uint64(sb.Size())),
	}
	f.root = &Group{
		file:     f,
		addr:     binary.Undefined,
		datasets: make(map[string]*Dataset),
	}

	if err := f.root.writeHeader(); err != nil {
		osFile.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.commit(); err != nil {
		osFile.Close()
		os.Remove(path)
		return nil, err
	}
	return f, nil
}

// Flush writes the superblock and syncs the file to disk.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.check(); err != nil {
		return err
	}
	if !f.writable {
		return nil
	}
	return f.flushLocked()
}

func (f *File) flushLocked() error {
	if err := f.writeSuperblock(); err != nil {
		return err
	}
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("syncing file: %w", err)
	}
	return nil
}

// commit makes the on-disk state describe everything written so far.
// The caller holds f.mu.
func (f *File) commit() error {
	if err := f.writeSuperblock(); err != nil {
		return err
	}
	if f.sync {
		if err := f.file.Sync(); err != nil {
			return fmt.Errorf("syncing file: %w", err)
		}
	}
	return nil
}

func (f *File) writeSuperblock() error {
	f.superblock.EOFAddress = f.allocator.EOF()
	f.superblock.RootGroupAddress = f.root.addr
	if err := f.superblock.Write(f.file); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return nil
}

// AllocStats returns allocation statistics (for debugging/testing).
func (f *File) AllocStats() alloc.Stats {
	if f.allocator == nil {
		return alloc.Stats{}
	}
	return f.allocator.Stats()
}
