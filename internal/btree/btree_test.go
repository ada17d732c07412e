package btree

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/robert-malhotra/h5stream/internal/alloc"
	"github.com/robert-malhotra/h5stream/internal/binary"
)

var cfg = binary.Config{OffsetSize: 8, LengthSize: 8}

// memFile is an in-memory io.ReaderAt and io.WriterAt.
type memFile struct {
	mu  sync.Mutex
	buf []byte
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if end := int(off) + len(p); end > len(f.buf) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[off:], p)
	return len(p), nil
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.NewReader(f.buf).ReadAt(p, off)
}

func TestChunkIndexFindChunk(t *testing.T) {
	idx := &ChunkIndex{
		NDims: 2,
		Entries: []ChunkEntry{
			{Offset: []uint64{0, 0}, FilterMask: 0, Size: 400, Address: 1000},
			{Offset: []uint64{0, 10}, FilterMask: 0, Size: 400, Address: 2000},
			{Offset: []uint64{10, 0}, FilterMask: 0, Size: 400, Address: 3000},
			{Offset: []uint64{10, 10}, FilterMask: 0, Size: 400, Address: 4000},
		},
	}

	chunkDims := []uint32{10, 10}

	tests := []struct {
		name     string
		offset   []uint64
		wantAddr uint64
		wantNil  bool
	}{
		{"first chunk origin", []uint64{0, 0}, 1000, false},
		{"first chunk middle", []uint64{5, 5}, 1000, false},
		{"first chunk edge", []uint64{9, 9}, 1000, false},
		{"second chunk", []uint64{0, 10}, 2000, false},
		{"third chunk", []uint64{10, 0}, 3000, false},
		{"fourth chunk edge", []uint64{19, 19}, 4000, false},
		{"out of bounds", []uint64{20, 20}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := idx.FindChunk(tt.offset, chunkDims)
			if tt.wantNil {
				if result != nil {
					t.Errorf("expected nil, got chunk at address %d", result.Address)
				}
			} else {
				if result == nil {
					t.Errorf("expected chunk at address %d, got nil", tt.wantAddr)
				} else if result.Address != tt.wantAddr {
					t.Errorf("expected address %d, got %d", tt.wantAddr, result.Address)
				}
			}
		})
	}
}

func TestChunkIndexEmpty(t *testing.T) {
	idx := &ChunkIndex{NDims: 1}
	if result := idx.FindChunk([]uint64{0}, []uint32{8}); result != nil {
		t.Errorf("expected nil for empty index, got %v", result)
	}
}

func TestReadChunkIndexUndefinedRoot(t *testing.T) {
	r := binary.NewReader(bytes.NewReader(nil), cfg)
	idx, err := ReadChunkIndex(r, binary.Undefined, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(idx.Entries))
	}
}

func TestReadChunkBTreeInvalidSignature(t *testing.T) {
	buf := append([]byte("XXXX"), make([]byte, 20)...)
	r := binary.NewReader(bytes.NewReader(buf), cfg)

	_, err := ReadChunkIndex(r, 0, 2)
	if !errors.Is(err, ErrInvalidNode) {
		t.Fatalf("expected ErrInvalidNode, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid B-tree signature") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestReadChunkBTreeWrongNodeType(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("TREE")     // Valid signature
	buf.WriteByte(0)            // Node type 0 (group, not chunk)
	buf.WriteByte(0)            // Node level 0 (leaf)
	buf.Write([]byte{0, 0})     // Entries used = 0
	buf.Write(make([]byte, 16)) // Left/right siblings (8 bytes each)

	r := binary.NewReader(bytes.NewReader(buf.Bytes()), cfg)

	_, err := ReadChunkIndex(r, 0, 2)
	if err == nil {
		t.Fatal("expected error for wrong node type")
	}
	if !strings.Contains(err.Error(), "unexpected B-tree node type") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestNodeSize(t *testing.T) {
	// 8-byte header fields, two siblings, 65 keys of 24 bytes, 64 children.
	want := 8 + 16 + 65*24 + 64*8
	if got := NodeSize(cfg, 1); got != want {
		t.Errorf("NodeSize = %d, want %d", got, want)
	}
}

// appendChunks indexes n chunks of chunkLen elements and returns the file.
func appendChunks(t *testing.T, n int, chunkLen uint32) (*memFile, *Appender) {
	t.Helper()
	f := &memFile{}
	a := NewAppender(f, alloc.New(0), cfg, 1)
	for i := 0; i < n; i++ {
		e := ChunkEntry{
			Offset:  []uint64{uint64(i) * uint64(chunkLen)},
			Size:    chunkLen * 4,
			Address: 1_000_000 + uint64(i)*uint64(chunkLen*4),
		}
		if err := a.Append(e, []uint32{chunkLen}); err != nil {
			t.Fatalf("Append chunk %d: %v", i, err)
		}
	}
	return f, a
}

func checkIndex(t *testing.T, f *memFile, a *Appender, n int, chunkLen uint32) {
	t.Helper()
	idx, err := ReadChunkIndex(binary.NewReader(f, cfg), a.Root(), 1)
	if err != nil {
		t.Fatalf("ReadChunkIndex: %v", err)
	}
	if len(idx.Entries) != n {
		t.Fatalf("entries = %d, want %d", len(idx.Entries), n)
	}
	for i, e := range idx.Entries {
		if e.Offset[0] != uint64(i)*uint64(chunkLen) {
			t.Fatalf("entry %d offset = %d", i, e.Offset[0])
		}
		if e.Address != 1_000_000+uint64(i)*uint64(chunkLen*4) || e.Size != chunkLen*4 {
			t.Fatalf("entry %d = %+v", i, e)
		}
	}
}

func TestAppenderEmpty(t *testing.T) {
	a := NewAppender(&memFile{}, alloc.New(0), cfg, 1)
	if a.Root() != binary.Undefined || a.Len() != 0 || a.Depth() != 0 {
		t.Errorf("empty appender: root %d len %d depth %d", a.Root(), a.Len(), a.Depth())
	}
}

func TestAppenderSingleLeaf(t *testing.T) {
	f, a := appendChunks(t, 3, 8)
	if a.Depth() != 1 {
		t.Errorf("Depth = %d, want 1", a.Depth())
	}
	checkIndex(t, f, a, 3, 8)

	idx, _ := ReadChunkIndex(binary.NewReader(f, cfg), a.Root(), 1)
	if e := idx.FindChunk([]uint64{17}, []uint32{8}); e == nil || e.Offset[0] != 16 {
		t.Errorf("FindChunk(17) = %+v", e)
	}
}

func TestAppenderFinalKey(t *testing.T) {
	f, a := appendChunks(t, 2, 8)

	// The key after the last child bounds the last chunk.
	keyOff := 8 + 2*cfg.OffsetSize + 2*(keySize(1)+cfg.OffsetSize)
	d := binary.NewDecoder(f.buf[a.Root()+uint64(keyOff):], cfg)
	k := readKey(d, 1)
	if k.Size != 0 || k.Offset[0] != 16 || k.Offset[1] != 0 {
		t.Errorf("final key = %+v", k)
	}
}

func TestAppenderSplitsLeaf(t *testing.T) {
	n := MaxEntries + 1
	f, a := appendChunks(t, n, 4)
	if a.Depth() != 2 {
		t.Fatalf("Depth = %d, want 2", a.Depth())
	}
	checkIndex(t, f, a, n, 4)

	// The first leaf links to its new right sibling.
	root := binary.NewDecoder(f.buf[a.Root():], cfg)
	root.Skip(8 + 2*cfg.OffsetSize)
	readKey(root, 1)
	first := root.Offset()
	readKey(root, 1)
	second := root.Offset()

	d := binary.NewDecoder(f.buf[first:], cfg)
	d.Skip(5)
	if level := d.Uint8(); level != 0 {
		t.Fatalf("child level = %d", level)
	}
	if used := d.Uint16(); used != MaxEntries {
		t.Errorf("first leaf holds %d entries", used)
	}
	if left, right := d.Offset(), d.Offset(); left != binary.Undefined || right != second {
		t.Errorf("siblings = %d/%d, want undefined/%d", left, right, second)
	}
}

func TestAppenderThreeLevels(t *testing.T) {
	n := MaxEntries*MaxEntries + 1
	f, a := appendChunks(t, n, 2)
	if a.Depth() != 3 {
		t.Fatalf("Depth = %d, want 3", a.Depth())
	}
	if a.Len() != n {
		t.Errorf("Len = %d, want %d", a.Len(), n)
	}
	checkIndex(t, f, a, n, 2)
}

func TestAppenderOutOfOrder(t *testing.T) {
	a := NewAppender(&memFile{}, alloc.New(0), cfg, 1)
	dims := []uint32{8}
	if err := a.Append(ChunkEntry{Offset: []uint64{8}, Size: 32, Address: 100}, dims); err != nil {
		t.Fatal(err)
	}
	err := a.Append(ChunkEntry{Offset: []uint64{0}, Size: 32, Address: 200}, dims)
	if !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder, got %v", err)
	}
	if err := a.Append(ChunkEntry{Offset: []uint64{0, 0}, Size: 32, Address: 200}, dims); err == nil {
		t.Error("expected rank mismatch error")
	}
}

func TestAppenderAllocatesIndexSpace(t *testing.T) {
	al := alloc.New(0)
	a := NewAppender(&memFile{}, al, cfg, 1)
	for i := 0; i < MaxEntries+1; i++ {
		e := ChunkEntry{Offset: []uint64{uint64(i)}, Size: 4, Address: uint64(i)}
		if err := a.Append(e, []uint32{1}); err != nil {
			t.Fatal(err)
		}
	}
	// Two leaves and a root.
	want := uint64(3 * NodeSize(cfg, 1))
	if got := al.Stats().KindBytes(alloc.Index); got != want {
		t.Errorf("index bytes = %d, want %d", got, want)
	}
}
