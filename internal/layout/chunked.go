package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/binary"
	"github.com/robert-malhotra/h5stream/internal/btree"
	"github.com/robert-malhotra/h5stream/internal/message"
)

var (
	ErrNotChunked  = errors.New("layout is not chunked")
	ErrUnsupported = errors.New("unsupported layout")
	ErrOutOfRange  = errors.New("range outside dataset extent")
)

// Chunked reads a one-dimensional chunked dataset.
type Chunked struct {
	reader *binary.Reader
	layout *message.DataLayout
	fill   []byte
}

// NewChunked creates a reader for a chunked layout. fill is the encoded
// value of one element and may be nil for zero fill.
func NewChunked(r *binary.Reader, msg *message.DataLayout, fill []byte) (*Chunked, error) {
	if !msg.IsChunked() {
		return nil, ErrNotChunked
	}
	if len(msg.ChunkShape()) != 1 {
		return nil, fmt.Errorf("%w: rank %d chunks", ErrUnsupported, len(msg.ChunkShape()))
	}
	if fill != nil && len(fill) != int(msg.ElementSize()) {
		return nil, fmt.Errorf("fill value is %d bytes, element is %d", len(fill), msg.ElementSize())
	}
	return &Chunked{reader: r, layout: msg, fill: fill}, nil
}

// Class returns the layout class.
func (c *Chunked) Class() message.LayoutClass {
	return message.LayoutChunked
}

// ElementSize returns the size of one element in bytes.
func (c *Chunked) ElementSize() uint32 {
	return c.layout.ElementSize()
}

// ChunkLen returns the number of elements per chunk.
func (c *Chunked) ChunkLen() uint32 {
	return c.layout.ChunkShape()[0]
}

// Index reads the dataset's chunk index.
func (c *Chunked) Index() (*btree.ChunkIndex, error) {
	idx, err := btree.ReadChunkIndex(c.reader, c.layout.IndexAddress, 1)
	if err != nil {
		return nil, fmt.Errorf("reading chunk index: %w", err)
	}
	return idx, nil
}

// ReadRange reads count elements starting at start from a dataset whose
// current extent is extent elements.
func (c *Chunked) ReadRange(start, count, extent uint64) ([]byte, error) {
	if start > extent || count > extent-start {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfRange, start, start+count, extent)
	}

	elemSize := uint64(c.ElementSize())
	output := make([]byte, count*elemSize)
	if c.fill != nil {
		fillElements(output, c.fill)
	}
	if count == 0 {
		return output, nil
	}

	idx, err := c.Index()
	if err != nil {
		return nil, err
	}

	chunkLen := uint64(c.ChunkLen())
	end := start + count
	for _, entry := range idx.Entries {
		lo := entry.Offset[0]
		hi := lo + chunkLen
		if hi <= start || lo >= end {
			continue
		}

		chunkData, err := c.readChunkData(entry)
		if err != nil {
			return nil, fmt.Errorf("reading chunk at offset %v: %w", entry.Offset, err)
		}

		from := max(lo, start)
		to := min(hi, end)
		src := chunkData[(from-lo)*elemSize:]
		dst := output[(from-start)*elemSize : (to-start)*elemSize]
		copy(dst, src)
	}
	return output, nil
}

// readChunkData reads the raw chunk data from disk.
func (c *Chunked) readChunkData(entry btree.ChunkEntry) ([]byte, error) {
	if entry.Address == 0 || entry.Address == binary.Undefined {
		return nil, fmt.Errorf("invalid chunk address")
	}
	want := uint64(c.ChunkLen()) * uint64(c.ElementSize())
	if uint64(entry.Size) != want {
		return nil, fmt.Errorf("%w: chunk is %d bytes, expected %d (filtered chunks are not supported)", ErrUnsupported, entry.Size, want)
	}
	return c.reader.ReadAt(entry.Address, int(entry.Size))
}

// fillElements repeats fill across buf.
func fillElements(buf, fill []byte) {
	if len(fill) == 0 {
		return
	}
	for i := 0; i < len(buf); i += len(fill) {
		copy(buf[i:], fill)
	}
}
