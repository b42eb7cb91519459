package pools

import "testing"

func TestBufferPool_Tiers(t *testing.T) {
	bp := NewBufferPool()

	tests := []struct {
		estimate int
		minCap   int
	}{
		{0, SmallBufferSize},
		{SmallBufferSize, SmallBufferSize},
		{SmallBufferSize + 1, MediumBufferSize},
		{MediumBufferSize + 1, LargeBufferSize},
		{1 << 20, LargeBufferSize},
	}
	for _, tt := range tests {
		buf := bp.Get(tt.estimate)
		if len(*buf) != 0 {
			t.Errorf("Get(%d): expected an empty buffer, got length %d", tt.estimate, len(*buf))
		}
		if cap(*buf) < tt.minCap {
			t.Errorf("Get(%d): expected capacity >= %d, got %d", tt.estimate, tt.minCap, cap(*buf))
		}
	}

	stats := bp.Stats()
	if stats.TotalGets != 5 || stats.SmallHits != 2 || stats.MediumHits != 1 || stats.LargeHits != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestBufferPool_PutResets(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.Get(10)
	*buf = append(*buf, "HTTP/1.1 200 OK\r\n"...)
	bp.Put(buf)
	if len(*buf) != 0 {
		t.Errorf("Expected Put to truncate, got length %d", len(*buf))
	}

	// grown and tiny buffers are accepted without panicking
	big := make([]byte, 0, 1<<20)
	bp.Put(&big)
	tiny := make([]byte, 0, 8)
	bp.Put(&tiny)
	bp.Put(nil)
}
