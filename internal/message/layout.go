package message

import (
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/binary"
)

// LayoutClass represents the storage layout class.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0 // Data stored in object header
	LayoutContiguous LayoutClass = 1 // Data in single contiguous block
	LayoutChunked    LayoutClass = 2 // Data in indexed chunks
)

// DataLayout represents a version 3 data layout message (type 0x0008).
//
// For chunked storage ChunkDims carries one entry per dataspace dimension
// followed by the element size in bytes, and IndexAddress points at the
// root of a version 1 chunk B-tree (binary.Undefined until the first chunk
// is written).
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Compact
	CompactData []byte

	// Contiguous
	Address uint64
	Size    uint64

	// Chunked
	IndexAddress uint64
	ChunkDims    []uint32
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

// IsChunked returns true if data is stored in chunks.
func (m *DataLayout) IsChunked() bool {
	return m.Class == LayoutChunked
}

// ElementSize returns the element size recorded in a chunked layout.
func (m *DataLayout) ElementSize() uint32 {
	if len(m.ChunkDims) == 0 {
		return 0
	}
	return m.ChunkDims[len(m.ChunkDims)-1]
}

// ChunkShape returns the chunk dimensions in elements, without the
// trailing element size.
func (m *DataLayout) ChunkShape() []uint32 {
	if len(m.ChunkDims) == 0 {
		return nil
	}
	return m.ChunkDims[:len(m.ChunkDims)-1]
}

// NewChunkedLayout creates a chunked layout for chunks of the given shape
// holding elements of elemSize bytes. The index address starts undefined.
func NewChunkedLayout(shape []uint32, elemSize uint32) *DataLayout {
	dims := make([]uint32, 0, len(shape)+1)
	dims = append(dims, shape...)
	dims = append(dims, elemSize)
	return &DataLayout{
		Version:      3,
		Class:        LayoutChunked,
		IndexAddress: binary.Undefined,
		ChunkDims:    dims,
	}
}

// Encode writes a version 3 layout message.
func (m *DataLayout) Encode(w *binary.Writer) {
	w.WriteUint8(3)
	w.WriteUint8(uint8(m.Class))
	switch m.Class {
	case LayoutCompact:
		w.WriteUint16(uint16(len(m.CompactData)))
		w.WriteBytes(m.CompactData)
	case LayoutContiguous:
		w.WriteOffset(m.Address)
		w.WriteLength(m.Size)
	case LayoutChunked:
		w.WriteUint8(uint8(len(m.ChunkDims)))
		w.WriteOffset(m.IndexAddress)
		for _, d := range m.ChunkDims {
			w.WriteUint32(d)
		}
	}
}

func decodeDataLayout(d *binary.Decoder) (*DataLayout, error) {
	m := &DataLayout{Version: d.Uint8()}
	if err := decodeErr(d); err != nil {
		return nil, err
	}
	if m.Version != 3 {
		return nil, fmt.Errorf("%w: layout version %d", ErrUnsupportedVersion, m.Version)
	}

	m.Class = LayoutClass(d.Uint8())
	switch m.Class {
	case LayoutCompact:
		n := int(d.Uint16())
		m.CompactData = append([]byte(nil), d.Bytes(n)...)
	case LayoutContiguous:
		m.Address = d.Offset()
		m.Size = d.Length()
	case LayoutChunked:
		ndims := int(d.Uint8())
		m.IndexAddress = d.Offset()
		m.ChunkDims = make([]uint32, ndims)
		for i := range m.ChunkDims {
			m.ChunkDims[i] = d.Uint32()
		}
	default:
		if err := decodeErr(d); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: layout class %d", ErrUnsupportedClass, m.Class)
	}
	return m, decodeErr(d)
}
