package pools

import "testing"

func TestBytePool_GetLength(t *testing.T) {
	bp := NewBytePoolWithSizes([]int{16, 64})

	for _, size := range []int{0, 1, 16, 17, 64} {
		buf := bp.Get(size)
		if len(buf) != size {
			t.Errorf("Get(%d): expected length %d, got %d", size, size, len(buf))
		}
	}
}

func TestBytePool_TierCapacity(t *testing.T) {
	bp := NewBytePoolWithSizes([]int{16, 64})

	if c := cap(bp.Get(10)); c != 16 {
		t.Errorf("Expected capacity 16, got %d", c)
	}
	if c := cap(bp.Get(20)); c != 64 {
		t.Errorf("Expected capacity 64, got %d", c)
	}
}

func TestBytePool_Oversize(t *testing.T) {
	bp := NewBytePoolWithSizes([]int{16})

	buf := bp.Get(100)
	if len(buf) != 100 {
		t.Fatalf("Expected length 100, got %d", len(buf))
	}
	bp.Put(buf)

	stats := bp.Stats()
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.Puts != 0 {
		t.Errorf("Expected a foreign buffer to be dropped, got %d puts", stats.Puts)
	}
}

func TestBytePool_PutRestoresLength(t *testing.T) {
	bp := NewBytePoolWithSizes([]int{32})

	buf := bp.Get(5)
	bp.Put(buf)

	// whatever comes back, its length is the requested one
	again := bp.Get(30)
	if len(again) != 30 || cap(again) != 32 {
		t.Errorf("Expected len 30 cap 32, got len %d cap %d", len(again), cap(again))
	}
	if bp.Stats().Puts != 1 {
		t.Errorf("Expected 1 put, got %d", bp.Stats().Puts)
	}
}

func TestBytePool_SizesNormalized(t *testing.T) {
	bp := NewBytePoolWithSizes([]int{64, 0, 16, 64, -1, 32})

	want := []int{16, 32, 64}
	got := bp.Sizes()
	if len(got) != len(want) {
		t.Fatalf("Expected sizes %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected sizes %v, got %v", want, got)
		}
	}
}

func TestBytePool_Defaults(t *testing.T) {
	bp := NewBytePool()
	if len(bp.Sizes()) != len(defaultSizes) {
		t.Errorf("Expected %d tiers, got %d", len(defaultSizes), len(bp.Sizes()))
	}
}
