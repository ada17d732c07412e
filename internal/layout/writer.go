package layout

import (
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/h5stream/internal/alloc"
	"github.com/robert-malhotra/h5stream/internal/binary"
	"github.com/robert-malhotra/h5stream/internal/btree"
)

// ErrChunkGap is returned when writing into a chunk that precedes the last
// allocated chunk but was never allocated itself.
var ErrChunkGap = errors.New("chunk was skipped and can no longer be allocated")

// Allocator hands out file space for chunks and index nodes.
type Allocator interface {
	Alloc(kind alloc.Kind, size uint64) uint64
}

// ChunkWriter writes elements of a one-dimensional chunked dataset,
// allocating chunks as they are first touched. It is not safe for
// concurrent use.
type ChunkWriter struct {
	w        io.WriterAt
	alloc    Allocator
	index    *btree.Appender
	chunkLen uint32
	elemSize uint32
	fill     []byte

	// Chunk addresses by chunk number.
	chunks map[uint64]uint64
	last   uint64
}

// NewChunkWriter creates a writer for a dataset with no chunks. fill is the
// encoded value of one element and may be nil for zero fill.
func NewChunkWriter(w io.WriterAt, a Allocator, cfg binary.Config, chunkLen, elemSize uint32, fill []byte) *ChunkWriter {
	return &ChunkWriter{
		w:        w,
		alloc:    a,
		index:    btree.NewAppender(w, a, cfg, 1),
		chunkLen: chunkLen,
		elemSize: elemSize,
		fill:     fill,
		chunks:   make(map[uint64]uint64),
	}
}

// ChunkSize returns the size in bytes of one chunk.
func (cw *ChunkWriter) ChunkSize() uint64 {
	return uint64(cw.chunkLen) * uint64(cw.elemSize)
}

// IndexAddress returns the chunk index root, or binary.Undefined while no
// chunk exists.
func (cw *ChunkWriter) IndexAddress() uint64 {
	return cw.index.Root()
}

// Chunks returns the number of allocated chunks.
func (cw *ChunkWriter) Chunks() int {
	return len(cw.chunks)
}

// WriteElement writes one encoded element at index i. It reports whether a
// new chunk was allocated, in which case the index root may have moved.
func (cw *ChunkWriter) WriteElement(i uint64, data []byte) (bool, error) {
	if len(data) != int(cw.elemSize) {
		return false, fmt.Errorf("element is %d bytes, expected %d", len(data), cw.elemSize)
	}

	n := i / uint64(cw.chunkLen)
	within := (i % uint64(cw.chunkLen)) * uint64(cw.elemSize)

	if addr, ok := cw.chunks[n]; ok {
		if _, err := cw.w.WriteAt(data, int64(addr+within)); err != nil {
			return false, fmt.Errorf("writing element %d: %w", i, err)
		}
		return false, nil
	}
	if len(cw.chunks) > 0 && n < cw.last {
		return false, fmt.Errorf("%w: chunk %d before %d", ErrChunkGap, n, cw.last)
	}

	size := cw.ChunkSize()
	buf := make([]byte, size)
	if cw.fill != nil {
		fillElements(buf, cw.fill)
	}
	copy(buf[within:], data)

	addr := cw.alloc.Alloc(alloc.Chunk, size)
	if _, err := cw.w.WriteAt(buf, int64(addr)); err != nil {
		return false, fmt.Errorf("writing chunk %d: %w", n, err)
	}

	entry := btree.ChunkEntry{
		Offset:  []uint64{n * uint64(cw.chunkLen)},
		Size:    uint32(size),
		Address: addr,
	}
	if err := cw.index.Append(entry, []uint32{cw.chunkLen}); err != nil {
		return false, fmt.Errorf("indexing chunk %d: %w", n, err)
	}

	cw.chunks[n] = addr
	cw.last = n
	return true, nil
}
