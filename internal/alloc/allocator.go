package alloc

import (
	"fmt"
	"sync"
)

// Kind classifies an allocation for statistics.
type Kind uint8

const (
	Header Kind = iota
	Index
	Chunk
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case Index:
		return "index"
	case Chunk:
		return "chunk"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Stats summarizes allocations made so far.
type Stats struct {
	Allocations uint64
	Bytes       uint64
	Largest     uint64
	ByKind      [numKinds]uint64
}

// KindBytes returns the number of bytes allocated for kind k.
func (s Stats) KindBytes(k Kind) uint64 {
	if k >= numKinds {
		return 0
	}
	return s.ByKind[k]
}

// Allocator is an append-only, concurrency-safe space allocator.
type Allocator struct {
	mu    sync.Mutex
	base  uint64
	eof   uint64
	stats Stats
}

// New creates an allocator whose first block starts at base.
func New(base uint64) *Allocator {
	return &Allocator{base: base, eof: base}
}

// Alloc reserves size bytes at the end of the file.
func (a *Allocator) Alloc(kind Kind, size uint64) uint64 {
	return a.AllocAligned(kind, size, 1)
}

// AllocAligned reserves size bytes at the next multiple of alignment.
func (a *Allocator) AllocAligned(kind Kind, size, alignment uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if alignment > 1 {
		if rem := a.eof % alignment; rem != 0 {
			a.eof += alignment - rem
		}
	}
	addr := a.eof
	if size == 0 {
		return addr
	}
	a.eof += size

	a.stats.Allocations++
	a.stats.Bytes += size
	if size > a.stats.Largest {
		a.stats.Largest = size
	}
	if kind < numKinds {
		a.stats.ByKind[kind] += size
	}
	return addr
}

// EOF returns the current end-of-file address.
func (a *Allocator) EOF() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// Base returns the address of the first allocatable byte.
func (a *Allocator) Base() uint64 {
	return a.base
}

// Stats returns a snapshot of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
