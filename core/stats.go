package core

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/searchktools/static-server/core/http"
	"github.com/searchktools/static-server/core/pools"
)

type counters struct {
	ok         atomic.Uint64
	partial    atomic.Uint64
	badRequest atomic.Uint64
	notFound   atomic.Uint64
	bytesSent  atomic.Uint64
	traversals atomic.Uint64
}

func (c *counters) record(status http.Status, written int64) {
	switch status {
	case http.StatusOK:
		c.ok.Add(1)
	case http.StatusPartialContent:
		c.partial.Add(1)
	case http.StatusBadRequest:
		c.badRequest.Add(1)
	case http.StatusNotFound:
		c.notFound.Add(1)
	}
	if written > 0 {
		c.bytesSent.Add(uint64(written))
	}
}

// Stats is a snapshot of engine activity
type Stats struct {
	Connections pools.ConnTrackerStats `json:"connections"`
	Responses   ResponseStats          `json:"responses"`
	BytesSent   uint64                 `json:"bytes_sent"`
	Traversals  uint64                 `json:"traversal_attempts"`
	Buffers     pools.BytePoolStats    `json:"buffers"`
	Scratch     pools.BufferStats      `json:"scratch"`
}

// ResponseStats counts responses by status
type ResponseStats struct {
	OK             uint64 `json:"200"`
	PartialContent uint64 `json:"206"`
	BadRequest     uint64 `json:"400"`
	NotFound       uint64 `json:"404"`
}

// Total returns the number of responses written
func (r ResponseStats) Total() uint64 {
	return r.OK + r.PartialContent + r.BadRequest + r.NotFound
}

// Stats returns a snapshot of the engine counters
func (e *Engine) Stats() Stats {
	return Stats{
		Connections: e.tracker.Stats(),
		Responses: ResponseStats{
			OK:             e.counters.ok.Load(),
			PartialContent: e.counters.partial.Load(),
			BadRequest:     e.counters.badRequest.Load(),
			NotFound:       e.counters.notFound.Load(),
		},
		BytesSent:  e.counters.bytesSent.Load(),
		Traversals: e.counters.traversals.Load(),
		Buffers:    e.bytePool.Stats(),
		Scratch:    e.bufPool.Stats(),
	}
}

// StatsJSON returns the stats as indented JSON
func (e *Engine) StatsJSON() string {
	data, _ := json.MarshalIndent(e.Stats(), "", "  ")
	return string(data)
}

// StatsText returns the stats as human-readable text
func (e *Engine) StatsText() string {
	s := e.Stats()
	return fmt.Sprintf(`Engine Statistics
=================

Connections:
  Active: %d
  Peak:   %d
  Opened: %d
  Closed: %d

Responses:
  200: %d
  206: %d
  400: %d
  404: %d

Bytes sent:         %d
Traversal attempts: %d
`,
		s.Connections.Active, s.Connections.Peak, s.Connections.Opened, s.Connections.Closed,
		s.Responses.OK, s.Responses.PartialContent, s.Responses.BadRequest, s.Responses.NotFound,
		s.BytesSent, s.Traversals,
	)
}
