package btree

import (
	"fmt"
	"io"

	"github.com/robert-malhotra/h5stream/internal/alloc"
	"github.com/robert-malhotra/h5stream/internal/binary"
)

// Allocator hands out file space for new nodes.
type Allocator interface {
	Alloc(kind alloc.Kind, size uint64) uint64
}

type node struct {
	addr     uint64
	level    uint8
	left     uint64
	right    uint64
	keys     []key // keys[i] is the left key of children[i]
	children []uint64
	end      key // right key of the last child
}

// Appender builds a chunk B-tree from chunks supplied in increasing offset
// order. It is not safe for concurrent use.
type Appender struct {
	w     io.WriterAt
	alloc Allocator
	cfg   binary.Config
	ndims int

	// path[0] is the rightmost leaf, path[len(path)-1] the root.
	path  []*node
	count int
	last  []uint64
}

// NewAppender creates an appender for an empty tree indexing a dataset of
// rank ndims.
func NewAppender(w io.WriterAt, a Allocator, cfg binary.Config, ndims int) *Appender {
	return &Appender{w: w, alloc: a, cfg: cfg, ndims: ndims}
}

// Root returns the root node address, or binary.Undefined if no chunk has
// been appended.
func (a *Appender) Root() uint64 {
	if len(a.path) == 0 {
		return binary.Undefined
	}
	return a.path[len(a.path)-1].addr
}

// Len returns the number of chunks indexed.
func (a *Appender) Len() int {
	return a.count
}

// Depth returns the number of levels in the tree.
func (a *Appender) Depth() int {
	return len(a.path)
}

// Append indexes a chunk of shape chunkDims and writes every node whose
// contents changed. Chunk offsets must be strictly increasing.
func (a *Appender) Append(e ChunkEntry, chunkDims []uint32) error {
	if len(e.Offset) != a.ndims || len(chunkDims) != a.ndims {
		return fmt.Errorf("chunk rank %d, dims %d, index rank %d", len(e.Offset), len(chunkDims), a.ndims)
	}
	if a.last != nil && !offsetLess(a.last, e.Offset) {
		return fmt.Errorf("%w: %v after %v", ErrOutOfOrder, e.Offset, a.last)
	}

	left := key{Size: e.Size, FilterMask: e.FilterMask, Offset: make([]uint64, a.ndims+1)}
	right := key{Offset: make([]uint64, a.ndims+1)}
	for i, o := range e.Offset {
		left.Offset[i] = o
		right.Offset[i] = o + uint64(chunkDims[i])
	}

	if len(a.path) == 0 {
		a.path = []*node{a.newNode(0)}
	}
	if err := a.insert(0, left, e.Address, right); err != nil {
		return err
	}
	for _, n := range a.path {
		if err := a.writeNode(n); err != nil {
			return err
		}
	}

	a.count++
	a.last = append(a.last[:0], e.Offset...)
	return nil
}

// insert adds child to the rightmost node at level, splitting it into a new
// right sibling if it is full.
func (a *Appender) insert(level int, k key, child uint64, end key) error {
	n := a.path[level]
	if len(n.children) < MaxEntries {
		n.keys = append(n.keys, k)
		n.children = append(n.children, child)
		for _, up := range a.path[level:] {
			up.end = end
		}
		return nil
	}

	sib := a.newNode(uint8(level))
	sib.left = n.addr
	n.right = sib.addr
	if err := a.writeNode(n); err != nil {
		return err
	}

	if level+1 == len(a.path) {
		root := a.newNode(uint8(level + 1))
		root.keys = []key{n.keys[0]}
		root.children = []uint64{n.addr}
		root.end = n.end
		a.path = append(a.path, root)
	}

	sib.keys = []key{k}
	sib.children = []uint64{child}
	sib.end = end
	a.path[level] = sib
	return a.insert(level+1, k, sib.addr, end)
}

func (a *Appender) newNode(level uint8) *node {
	return &node{
		addr:  a.alloc.Alloc(alloc.Index, uint64(NodeSize(a.cfg, a.ndims))),
		level: level,
		left:  binary.Undefined,
		right: binary.Undefined,
	}
}

func (a *Appender) writeNode(n *node) error {
	w := binary.NewWriter(a.cfg)
	w.WriteBytes(Signature)
	w.WriteUint8(ChunkNodeType)
	w.WriteUint8(n.level)
	w.WriteUint16(uint16(len(n.children)))
	w.WriteOffset(n.left)
	w.WriteOffset(n.right)
	for i, child := range n.children {
		writeKey(w, n.keys[i])
		w.WriteOffset(child)
	}
	writeKey(w, n.end)
	w.PadTo(NodeSize(a.cfg, a.ndims))

	if err := w.Store(a.w, n.addr); err != nil {
		return fmt.Errorf("writing B-tree node at %d: %w", n.addr, err)
	}
	return nil
}

// offsetLess orders chunk offsets lexicographically.
func offsetLess(a, b []uint64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
