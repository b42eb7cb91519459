package pools

import (
	"runtime"
	"runtime/debug"
	"time"
)

// GCConfig holds GC tuning parameters. Zero values leave the runtime
// setting alone.
type GCConfig struct {
	// Percent is the GOGC target; negative disables the collector
	Percent int
	// MemoryLimit is the soft heap limit in bytes
	MemoryLimit int64
}

// ApplyGCConfig applies cfg and returns the settings it replaced, so
// callers can restore them.
func ApplyGCConfig(cfg GCConfig) GCConfig {
	prev := GCConfig{
		Percent:     gcPercent(),
		MemoryLimit: debug.SetMemoryLimit(-1),
	}

	if cfg.Percent != 0 {
		debug.SetGCPercent(cfg.Percent)
	}
	if cfg.MemoryLimit > 0 {
		debug.SetMemoryLimit(cfg.MemoryLimit)
	}
	return prev
}

// RestoreGCConfig puts back settings returned by ApplyGCConfig
func RestoreGCConfig(prev GCConfig) {
	debug.SetGCPercent(prev.Percent)
	debug.SetMemoryLimit(prev.MemoryLimit)
}

func gcPercent() int {
	// SetGCPercent is the only way to read the current value
	p := debug.SetGCPercent(100)
	debug.SetGCPercent(p)
	return p
}

// GCStats holds garbage collection statistics
type GCStats struct {
	NumGC        uint32        `json:"num_gc"`
	PauseTotal   time.Duration `json:"pause_total"`
	LastPause    time.Duration `json:"last_pause"`
	HeapAlloc    uint64        `json:"heap_alloc"`
	Sys          uint64        `json:"sys"`
	NumGoroutine int           `json:"goroutines"`
}

// ReadGCStats returns current GC statistics
func ReadGCStats() GCStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := GCStats{
		NumGC:        ms.NumGC,
		PauseTotal:   time.Duration(ms.PauseTotalNs),
		HeapAlloc:    ms.HeapAlloc,
		Sys:          ms.Sys,
		NumGoroutine: runtime.NumGoroutine(),
	}
	if ms.NumGC > 0 {
		stats.LastPause = time.Duration(ms.PauseNs[(ms.NumGC+255)%256])
	}
	return stats
}
