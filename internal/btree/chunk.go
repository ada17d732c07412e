package btree

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/binary"
)

// Signature opens every v1 B-tree node.
var Signature = []byte{'T', 'R', 'E', 'E'}

// ChunkNodeType is the v1 B-tree node type for raw data chunks.
const ChunkNodeType = 1

// ChunkNodeK is the chunk B-tree half-node capacity; nodes hold up to
// 2*ChunkNodeK children. 32 is the library default.
const ChunkNodeK = 32

// MaxEntries is the number of children a full node holds.
const MaxEntries = 2 * ChunkNodeK

var (
	ErrInvalidNode = errors.New("invalid B-tree node")
	ErrOutOfOrder  = errors.New("chunk appended out of order")
)

// ChunkEntry represents a chunk in the B-tree index.
type ChunkEntry struct {
	// Offset contains the chunk coordinates in dataset element space.
	// For a 2D dataset with chunks [10,10], chunk at offset [20,30]
	// covers elements [20:30, 30:40].
	Offset []uint64

	// FilterMask indicates which filters were disabled for this chunk.
	// Bit i = 1 means filter i was skipped.
	FilterMask uint32

	// Size is the size of the chunk data on disk.
	Size uint32

	// Address is the file offset where chunk data is stored.
	Address uint64
}

// ChunkIndex contains all chunks for a dataset.
type ChunkIndex struct {
	// NDims is the number of dataset dimensions.
	NDims int

	// Entries contains all chunk entries in key order.
	Entries []ChunkEntry
}

// key is a chunk B-tree key. Offset has one entry per dataset dimension
// plus a trailing zero for the element dimension.
type key struct {
	Size       uint32
	FilterMask uint32
	Offset     []uint64
}

// keySize returns the encoded size of a key for a dataset of rank ndims.
func keySize(ndims int) int {
	return 4 + 4 + 8*(ndims+1)
}

// NodeSize returns the encoded size of a full chunk B-tree node.
func NodeSize(cfg binary.Config, ndims int) int {
	return 4 + 1 + 1 + 2 + 2*cfg.OffsetSize +
		(MaxEntries+1)*keySize(ndims) + MaxEntries*cfg.OffsetSize
}

func readKey(d *binary.Decoder, ndims int) key {
	k := key{
		Size:       d.Uint32(),
		FilterMask: d.Uint32(),
		Offset:     make([]uint64, ndims+1),
	}
	for i := range k.Offset {
		k.Offset[i] = d.Uint64()
	}
	return k
}

func writeKey(w *binary.Writer, k key) {
	w.WriteUint32(k.Size)
	w.WriteUint32(k.FilterMask)
	for _, o := range k.Offset {
		w.WriteUint64(o)
	}
}

// ReadChunkIndex reads a v1 B-tree chunk index.
// ndims is the number of dataset dimensions (not including the +1 used in B-tree keys).
func ReadChunkIndex(r *binary.Reader, btreeAddr uint64, ndims int) (*ChunkIndex, error) {
	index := &ChunkIndex{NDims: ndims}
	if btreeAddr == binary.Undefined {
		return index, nil
	}

	entries, err := readChunkNode(r, btreeAddr, ndims, -1)
	if err != nil {
		return nil, err
	}
	index.Entries = entries
	return index, nil
}

func readChunkNode(r *binary.Reader, address uint64, ndims int, wantLevel int) ([]ChunkEntry, error) {
	cfg := r.Config()
	headerSize := 8 + 2*cfg.OffsetSize

	d, err := r.Decoder(address, headerSize)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree node at %d: %w", address, err)
	}
	if !bytes.Equal(d.Bytes(4), Signature) {
		return nil, fmt.Errorf("%w: invalid B-tree signature at %d", ErrInvalidNode, address)
	}
	if nodeType := d.Uint8(); nodeType != ChunkNodeType {
		return nil, fmt.Errorf("%w: unexpected B-tree node type %d (expected 1 for chunk)", ErrInvalidNode, nodeType)
	}
	level := int(d.Uint8())
	if wantLevel >= 0 && level != wantLevel {
		return nil, fmt.Errorf("%w: node at %d has level %d, parent expects %d", ErrInvalidNode, address, level, wantLevel)
	}
	used := int(d.Uint16())
	if used > MaxEntries {
		return nil, fmt.Errorf("%w: %d entries at %d", ErrInvalidNode, used, address)
	}

	bodySize := (used+1)*keySize(ndims) + used*cfg.OffsetSize
	d, err = r.Decoder(address+uint64(headerSize), bodySize)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree node at %d: %w", address, err)
	}

	var entries []ChunkEntry
	for i := 0; i < used; i++ {
		k := readKey(d, ndims)
		child := d.Offset()
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidNode, err)
		}

		if level > 0 {
			sub, err := readChunkNode(r, child, ndims, level-1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, sub...)
			continue
		}
		if child == binary.Undefined || k.Size == 0 {
			continue
		}
		entries = append(entries, ChunkEntry{
			Offset:     k.Offset[:ndims],
			FilterMask: k.FilterMask,
			Size:       k.Size,
			Address:    child,
		})
	}
	return entries, nil
}

// FindChunk finds the chunk entry that contains the given offset.
// Returns nil if no chunk contains the offset.
func (idx *ChunkIndex) FindChunk(offset []uint64, chunkDims []uint32) *ChunkEntry {
	for i := range idx.Entries {
		entry := &idx.Entries[i]
		match := true
		for d := 0; d < len(offset) && d < len(entry.Offset); d++ {
			chunkStart := entry.Offset[d]
			chunkEnd := chunkStart + uint64(chunkDims[d])
			if offset[d] < chunkStart || offset[d] >= chunkEnd {
				match = false
				break
			}
		}
		if match {
			return entry
		}
	}
	return nil
}
