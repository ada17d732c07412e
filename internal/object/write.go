package object

import (
	"fmt"
	"io"
	"math"

	"github.com/robert-malhotra/h5stream/internal/binary"
	"github.com/robert-malhotra/h5stream/internal/message"
)

// MinGroupChunkSize is the minimum chunk size for group object headers.
// This matches what h5py uses for compatibility.
const MinGroupChunkSize = 120

// messageHeaderSize is the size of a message's type, size and flags fields.
const messageHeaderSize = 4

// MessagesSize returns the number of chunk bytes msgs occupy.
func MessagesSize(cfg binary.Config, msgs []message.Encoder) int {
	n := 0
	for _, msg := range msgs {
		n += messageHeaderSize + message.Size(msg, cfg)
	}
	return n
}

// Encode builds a complete version 2 object header. If chunkSize is zero the
// chunk is sized to fit msgs exactly; otherwise it is padded to chunkSize
// with NIL messages and ErrHeaderOverflow is returned if msgs do not fit.
func Encode(cfg binary.Config, msgs []message.Encoder, chunkSize int) ([]byte, error) {
	used := MessagesSize(cfg, msgs)
	if chunkSize == 0 {
		chunkSize = used
	}
	if used > chunkSize {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrHeaderOverflow, used, chunkSize)
	}

	sizeFieldSize := chunkSizeFieldBytes(chunkSize)
	flags := uint8(0)
	switch sizeFieldSize {
	case 2:
		flags = 1
	case 4:
		flags = 2
	case 8:
		flags = 3
	}

	w := binary.NewWriter(cfg)
	w.WriteBytes(SignatureV2)
	w.WriteUint8(2)
	w.WriteUint8(flags)
	w.WriteUintN(uint64(chunkSize), sizeFieldSize)
	start := w.Len()

	for _, msg := range msgs {
		size := message.Size(msg, cfg)
		if size > math.MaxUint16 {
			return nil, fmt.Errorf("%w: message 0x%04x is %d bytes", ErrHeaderOverflow, uint16(msg.Type()), size)
		}
		w.WriteUint8(uint8(msg.Type()))
		w.WriteUint16(uint16(size))
		w.WriteUint8(0)
		msg.Encode(w)
	}
	writeNILPadding(w, chunkSize-used)

	w.PadTo(start + chunkSize)
	w.AppendChecksum()
	return w.Bytes(), nil
}

// Write encodes a header and stores it at addr.
func Write(dst io.WriterAt, addr uint64, cfg binary.Config, msgs []message.Encoder, chunkSize int) error {
	buf, err := Encode(cfg, msgs, chunkSize)
	if err != nil {
		return err
	}
	if _, err := dst.WriteAt(buf, int64(addr)); err != nil {
		return fmt.Errorf("writing object header at %d: %w", addr, err)
	}
	return nil
}

// EncodedSize returns the total header size, prefix and checksum included,
// for a chunk of chunkSize bytes.
func EncodedSize(chunkSize int) int {
	return 4 + 1 + 1 + chunkSizeFieldBytes(chunkSize) + chunkSize + 4
}

// writeNILPadding fills n bytes with NIL messages. A remainder shorter than
// a message header is left as a zero gap.
func writeNILPadding(w *binary.Writer, n int) {
	for n >= messageHeaderSize {
		data := n - messageHeaderSize
		if data > math.MaxUint16 {
			data = math.MaxUint16
		}
		w.WriteUint8(uint8(message.TypeNIL))
		w.WriteUint16(uint16(data))
		w.WriteUint8(0)
		w.WriteZeros(data)
		n -= messageHeaderSize + data
	}
	w.WriteZeros(n)
}

// chunkSizeFieldBytes returns the bytes needed to encode a chunk size.
func chunkSizeFieldBytes(size int) int {
	switch {
	case size <= 0xFF:
		return 1
	case size <= 0xFFFF:
		return 2
	case size <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}
