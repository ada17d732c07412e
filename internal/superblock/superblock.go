package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/h5stream/internal/binary"
)

// Signature is the 8-byte HDF5 file signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// Possible superblock locations, searched in order.
var searchOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
	ErrChecksum           = errors.New("superblock checksum mismatch")
)

// Superblock holds the file-level metadata of a version 2/3 superblock.
type Superblock struct {
	Version              uint8
	OffsetSize           uint8
	LengthSize           uint8
	FileConsistencyFlags uint8

	BaseAddress      uint64
	ExtensionAddress uint64 // binary.Undefined when absent
	EOFAddress       uint64
	RootGroupAddress uint64

	// FileOffset is where the signature was found.
	FileOffset int64
}

// New returns a superblock of the given version (2 or 3) with 8-byte
// offsets and lengths.
func New(version uint8) *Superblock {
	return &Superblock{
		Version:          version,
		OffsetSize:       8,
		LengthSize:       8,
		ExtensionAddress: binpkg.Undefined,
	}
}

// Config returns the offset and length widths recorded in the superblock.
func (sb *Superblock) Config() binpkg.Config {
	return binpkg.Config{
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// Size returns the encoded size in bytes, including the checksum.
func (sb *Superblock) Size() int {
	return 12 + 4*int(sb.OffsetSize) + 4
}

// Read locates and parses the superblock.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, 9)
	for _, off := range searchOffsets {
		if _, err := r.ReadAt(sig, off); err != nil {
			if errors.Is(err, io.EOF) {
				continue
			}
			return nil, err
		}
		if !bytes.Equal(sig[:8], Signature) {
			continue
		}

		if v := sig[8]; v != 2 && v != 3 {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
		sb, err := decode(r, off)
		if err != nil {
			return nil, err
		}
		sb.FileOffset = off
		return sb, nil
	}
	return nil, ErrNotHDF5
}

func decode(r io.ReaderAt, off int64) (*Superblock, error) {
	fixed := make([]byte, 12)
	if _, err := r.ReadAt(fixed, off); err != nil {
		return nil, err
	}
	cfg := binpkg.Config{OffsetSize: int(fixed[9]), LengthSize: int(fixed[10])}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}

	sb := &Superblock{
		Version:              fixed[8],
		OffsetSize:           fixed[9],
		LengthSize:           fixed[10],
		FileConsistencyFlags: fixed[11],
	}

	block := make([]byte, sb.Size())
	if _, err := r.ReadAt(block, off); err != nil {
		return nil, err
	}
	if !binpkg.VerifyLookup3(block) {
		return nil, ErrChecksum
	}

	d := binpkg.NewDecoder(block[12:], cfg)
	sb.BaseAddress = d.Offset()
	sb.ExtensionAddress = d.Offset()
	sb.EOFAddress = d.Offset()
	sb.RootGroupAddress = d.Offset()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	return sb, nil
}
