package pools

import (
	"slices"
	"sync"
	"sync/atomic"
)

// BytePool is a multi-tiered byte slice pool for different size classes
type BytePool struct {
	pools []*sync.Pool
	sizes []int

	gets   atomic.Uint64
	puts   atomic.Uint64
	misses atomic.Uint64 // requests larger than the biggest tier
}

// Default tiers: request heads, small files, large chunks
var defaultSizes = []int{
	8 << 10,
	64 << 10,
	1 << 20,
	4 << 20,
}

// NewBytePool creates a new byte pool with standard size tiers
func NewBytePool() *BytePool {
	return NewBytePoolWithSizes(defaultSizes)
}

// NewBytePoolWithSizes creates a byte pool with custom size tiers.
// Duplicate and non-positive sizes are dropped.
func NewBytePoolWithSizes(sizes []int) *BytePool {
	tiers := make([]int, 0, len(sizes))
	for _, s := range sizes {
		if s > 0 {
			tiers = append(tiers, s)
		}
	}
	slices.Sort(tiers)
	tiers = slices.Compact(tiers)

	bp := &BytePool{
		pools: make([]*sync.Pool, len(tiers)),
		sizes: tiers,
	}

	for i, size := range tiers {
		sz := size
		bp.pools[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, sz)
				return &buf
			},
		}
	}

	return bp
}

// Get returns a byte slice of length size
func (bp *BytePool) Get(size int) []byte {
	bp.gets.Add(1)
	for i, poolSize := range bp.sizes {
		if size <= poolSize {
			buf := *bp.pools[i].Get().(*[]byte)
			return buf[:size]
		}
	}

	bp.misses.Add(1)
	return make([]byte, size)
}

// Put returns a byte slice to the pool. Slices that did not come from a
// tier are left to the GC.
func (bp *BytePool) Put(buf []byte) {
	capacity := cap(buf)
	for i, poolSize := range bp.sizes {
		if capacity == poolSize {
			buf = buf[:capacity]
			bp.puts.Add(1)
			bp.pools[i].Put(&buf)
			return
		}
	}
}

// Sizes returns the tier sizes in ascending order
func (bp *BytePool) Sizes() []int {
	return slices.Clone(bp.sizes)
}

// BytePoolStats contains pool statistics
type BytePoolStats struct {
	Gets   uint64 `json:"gets"`
	Puts   uint64 `json:"puts"`
	Misses uint64 `json:"misses"`
}

// Stats returns pool statistics
func (bp *BytePool) Stats() BytePoolStats {
	return BytePoolStats{
		Gets:   bp.gets.Load(),
		Puts:   bp.puts.Load(),
		Misses: bp.misses.Load(),
	}
}
