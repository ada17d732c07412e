// Package binary provides the little-endian, variable-width encoding
// primitives used by every HDF5 metadata structure.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidSize is returned for offset or length widths other than 2, 4 or 8.
	ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

	// ErrShortBuffer is returned when a decoder runs past the end of its input.
	ErrShortBuffer = errors.New("short buffer")
)

// Undefined is the HDF5 "undefined address" sentinel (all bits set).
const Undefined = ^uint64(0)

// Config holds the widths of file offsets and lengths, as recorded in the
// superblock. HDF5 metadata is always little-endian.
type Config struct {
	OffsetSize int
	LengthSize int
}

// DefaultConfig returns 8-byte offsets and lengths.
func DefaultConfig() Config {
	return Config{OffsetSize: 8, LengthSize: 8}
}

// Validate checks that both widths are supported.
func (c Config) Validate() error {
	for _, n := range []int{c.OffsetSize, c.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			return fmt.Errorf("%w: got %d", ErrInvalidSize, n)
		}
	}
	return nil
}

// Reader reads raw blocks from a file and hands out decoders over them.
type Reader struct {
	r   io.ReaderAt
	cfg Config
}

// NewReader creates a reader with the given configuration.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	return &Reader{r: r, cfg: cfg}
}

// Config returns the reader's offset and length widths.
func (r *Reader) Config() Config {
	return r.cfg
}

// ReadAt reads exactly n bytes at addr.
func (r *Reader) ReadAt(addr uint64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read of %d bytes at %d", n, addr)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := r.r.ReadAt(buf, int64(addr)); err != nil {
		return nil, fmt.Errorf("read %d bytes at %d: %w", n, addr, err)
	}
	return buf, nil
}

// Decoder reads n bytes at addr and returns a decoder over them.
func (r *Reader) Decoder(addr uint64, n int) (*Decoder, error) {
	buf, err := r.ReadAt(addr, n)
	if err != nil {
		return nil, err
	}
	return NewDecoder(buf, r.cfg), nil
}

// Decoder walks an in-memory buffer. The first failure is sticky: later
// calls return zero values and Err reports the original problem.
type Decoder struct {
	buf []byte
	pos int
	cfg Config
	err error
}

// NewDecoder creates a decoder over buf.
func NewDecoder(buf []byte, cfg Config) *Decoder {
	return &Decoder{buf: buf, cfg: cfg}
}

// Err returns the first error encountered.
func (d *Decoder) Err() error {
	return d.err
}

// Pos returns the number of bytes consumed.
func (d *Decoder) Pos() int {
	return d.pos
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// Config returns the decoder's offset and length widths.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Bytes consumes n bytes. The returned slice aliases the decoder's buffer.
func (d *Decoder) Bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.pos+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at %d, have %d", ErrShortBuffer, n, d.pos, len(d.buf)-d.pos)
		return nil
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

// Skip consumes n bytes without returning them.
func (d *Decoder) Skip(n int) {
	d.Bytes(n)
}

// Uint8 consumes one byte.
func (d *Decoder) Uint8() uint8 {
	b := d.Bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Uint16 consumes a little-endian uint16.
func (d *Decoder) Uint16() uint16 {
	return uint16(d.UintN(2))
}

// Uint32 consumes a little-endian uint32.
func (d *Decoder) Uint32() uint32 {
	return uint32(d.UintN(4))
}

// Uint64 consumes a little-endian uint64.
func (d *Decoder) Uint64() uint64 {
	return d.UintN(8)
}

// UintN consumes an n-byte little-endian unsigned integer.
func (d *Decoder) UintN(n int) uint64 {
	b := d.Bytes(n)
	if b == nil {
		return 0
	}
	return DecodeUint(b)
}

// Offset consumes a file address. All-ones values decode as Undefined.
func (d *Decoder) Offset() uint64 {
	v := d.UintN(d.cfg.OffsetSize)
	if d.err == nil && v == mask(d.cfg.OffsetSize) {
		return Undefined
	}
	return v
}

// Length consumes a length field. All-ones values decode as Undefined.
func (d *Decoder) Length() uint64 {
	v := d.UintN(d.cfg.LengthSize)
	if d.err == nil && v == mask(d.cfg.LengthSize) {
		return Undefined
	}
	return v
}

// CString consumes a NUL-terminated string, including the terminator.
func (d *Decoder) CString() string {
	if d.err != nil {
		return ""
	}
	for i := d.pos; i < len(d.buf); i++ {
		if d.buf[i] == 0 {
			s := string(d.buf[d.pos:i])
			d.pos = i + 1
			return s
		}
	}
	d.err = fmt.Errorf("%w: unterminated string at %d", ErrShortBuffer, d.pos)
	return ""
}

// DecodeUint decodes a little-endian unsigned integer of len(b) bytes.
func DecodeUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	}
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func mask(size int) uint64 {
	if size >= 8 {
		return Undefined
	}
	return 1<<(8*uint(size)) - 1
}
