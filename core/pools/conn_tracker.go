package pools

import (
	"io"
	"sync"
	"sync/atomic"
)

// ConnTracker keeps the set of live connections. It is shared by every
// connection goroutine.
type ConnTracker struct {
	mu    sync.Mutex
	conns map[string]io.Closer

	opened atomic.Uint64
	closed atomic.Uint64
	peak   atomic.Int64
}

// NewConnTracker creates an empty tracker
func NewConnTracker() *ConnTracker {
	return &ConnTracker{
		conns: make(map[string]io.Closer),
	}
}

// Add registers a connection under id
func (t *ConnTracker) Add(id string, c io.Closer) {
	t.mu.Lock()
	t.conns[id] = c
	n := int64(len(t.conns))
	t.mu.Unlock()

	t.opened.Add(1)
	for {
		p := t.peak.Load()
		if n <= p || t.peak.CompareAndSwap(p, n) {
			break
		}
	}
}

// Remove forgets id. Removing an unknown id is a no-op.
func (t *ConnTracker) Remove(id string) {
	t.mu.Lock()
	_, ok := t.conns[id]
	delete(t.conns, id)
	t.mu.Unlock()

	if ok {
		t.closed.Add(1)
	}
}

// Active returns the number of live connections
func (t *ConnTracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// CloseAll closes every live connection. Their goroutines still call Remove.
func (t *ConnTracker) CloseAll() {
	t.mu.Lock()
	conns := make([]io.Closer, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// ConnTrackerStats contains tracker statistics
type ConnTrackerStats struct {
	Active int    `json:"active"`
	Peak   int64  `json:"peak"`
	Opened uint64 `json:"opened"`
	Closed uint64 `json:"closed"`
}

// Stats returns tracker statistics
func (t *ConnTracker) Stats() ConnTrackerStats {
	return ConnTrackerStats{
		Active: t.Active(),
		Peak:   t.peak.Load(),
		Opened: t.opened.Load(),
		Closed: t.closed.Load(),
	}
}
