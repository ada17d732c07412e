package binary

import (
	"encoding/binary"
	"io"
)

// Writer accumulates an encoded metadata block in memory. Blocks are built
// whole, checksummed if needed, then written to the file with Store.
type Writer struct {
	buf []byte
	cfg Config
}

// NewWriter creates an empty writer with the given configuration.
func NewWriter(cfg Config) *Writer {
	return &Writer{cfg: cfg}
}

// Config returns the writer's offset and length widths.
func (w *Writer) Config() Config {
	return w.cfg
}

// OffsetSize returns the configured address width.
func (w *Writer) OffsetSize() int {
	return w.cfg.OffsetSize
}

// LengthSize returns the configured length width.
func (w *Writer) LengthSize() int {
	return w.cfg.LengthSize
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the encoded block.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reset empties the writer, keeping its capacity.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(p []byte) {
	w.buf = append(w.buf, p...)
}

// WriteZeros appends n zero bytes.
func (w *Writer) WriteZeros(n int) {
	for ; n > 0; n-- {
		w.buf = append(w.buf, 0)
	}
}

// WriteUint8 appends one byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 appends a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteUint32 appends a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteUint64 appends a little-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteUintN appends the low n bytes of v, little-endian.
func (w *Writer) WriteUintN(v uint64, n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, byte(v>>(8*i)))
	}
}

// WriteOffset appends a file address. Undefined is written as all ones.
func (w *Writer) WriteOffset(v uint64) {
	w.WriteUintN(v, w.cfg.OffsetSize)
}

// WriteLength appends a length field.
func (w *Writer) WriteLength(v uint64) {
	w.WriteUintN(v, w.cfg.LengthSize)
}

// WriteCString appends s followed by a NUL terminator.
func (w *Writer) WriteCString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// PadTo appends zeros until the block is n bytes long.
func (w *Writer) PadTo(n int) {
	w.WriteZeros(n - len(w.buf))
}

// AppendChecksum appends the lookup3 checksum of the block so far.
func (w *Writer) AppendChecksum() {
	w.WriteUint32(Lookup3Checksum(w.buf))
}

// Store writes the block at addr.
func (w *Writer) Store(dst io.WriterAt, addr uint64) error {
	_, err := dst.WriteAt(w.buf, int64(addr))
	return err
}
