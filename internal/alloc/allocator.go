// Package alloc provides extent allocation for stackfile container writing.
package alloc

import "sync"

// Allocator hands out append-only extents within a container file.
// Space is never reused: chunk extents abandoned by a compressed-chunk
// relocation or by close-time trimming become dead bytes.
type Allocator struct {
	mu sync.Mutex

	// eofAddr is the current end-of-file address (next allocation point).
	eofAddr uint64

	stats Stats
}

// Stats contains allocation statistics.
type Stats struct {
	TotalAllocations uint64 // Number of extents handed out
	TotalBytesAlloc  uint64 // Total bytes allocated
	LargestAlloc     uint64 // Largest single extent
}

// New creates a new Allocator starting at the given base address,
// typically right after the file header.
func New(baseAddr uint64) *Allocator {
	return &Allocator{eofAddr: baseAddr}
}

// Alloc allocates an extent of the given size and returns its address.
func (a *Allocator) Alloc(size uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size == 0 {
		return a.eofAddr
	}

	addr := a.eofAddr
	a.eofAddr += size

	a.stats.TotalAllocations++
	a.stats.TotalBytesAlloc += size
	if size > a.stats.LargestAlloc {
		a.stats.LargestAlloc = size
	}

	return addr
}

// EOFAddr returns the current end-of-file address.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eofAddr
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
