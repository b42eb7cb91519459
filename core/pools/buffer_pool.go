package pools

import (
	"sync"
	"sync/atomic"
)

// Buffer pool sizes
const (
	SmallBufferSize  = 512       // response headers
	MediumBufferSize = 8 * 1024  // typical directory listings
	LargeBufferSize  = 64 * 1024 // large listings
)

// BufferPool hands out empty append buffers in three capacity tiers
type BufferPool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool

	// Statistics
	smallHits  atomic.Uint64
	mediumHits atomic.Uint64
	largeHits  atomic.Uint64
	totalGets  atomic.Uint64
}

func newTier(size int) sync.Pool {
	return sync.Pool{
		New: func() any {
			buf := make([]byte, 0, size)
			return &buf
		},
	}
}

// NewBufferPool creates a new buffer pool
func NewBufferPool() *BufferPool {
	return &BufferPool{
		small:  newTier(SmallBufferSize),
		medium: newTier(MediumBufferSize),
		large:  newTier(LargeBufferSize),
	}
}

// Get acquires an empty buffer with room for at least estimatedSize bytes,
// up to LargeBufferSize.
func (bp *BufferPool) Get(estimatedSize int) *[]byte {
	bp.totalGets.Add(1)

	switch {
	case estimatedSize <= SmallBufferSize:
		bp.smallHits.Add(1)
		return bp.small.Get().(*[]byte)
	case estimatedSize <= MediumBufferSize:
		bp.mediumHits.Add(1)
		return bp.medium.Get().(*[]byte)
	default:
		bp.largeHits.Add(1)
		return bp.large.Get().(*[]byte)
	}
}

// Put returns a buffer to the tier its capacity fits. Buffers that grew past
// LargeBufferSize are left to the GC.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}

	*buf = (*buf)[:0]

	switch c := cap(*buf); {
	case c < SmallBufferSize:
	case c < MediumBufferSize:
		bp.small.Put(buf)
	case c < LargeBufferSize:
		bp.medium.Put(buf)
	case c <= 4*LargeBufferSize:
		bp.large.Put(buf)
	}
}

// BufferStats contains buffer pool statistics
type BufferStats struct {
	SmallHits  uint64 `json:"small"`
	MediumHits uint64 `json:"medium"`
	LargeHits  uint64 `json:"large"`
	TotalGets  uint64 `json:"gets"`
}

// Stats returns buffer pool statistics
func (bp *BufferPool) Stats() BufferStats {
	return BufferStats{
		SmallHits:  bp.smallHits.Load(),
		MediumHits: bp.mediumHits.Load(),
		LargeHits:  bp.largeHits.Load(),
		TotalGets:  bp.totalGets.Load(),
	}
}
