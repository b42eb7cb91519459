package core

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/searchktools/static-server/core/files"
	"github.com/searchktools/static-server/core/http"
	"github.com/searchktools/static-server/core/pools"
)

// Connection is the state of one accepted socket. It is owned by the
// goroutine serving it.
type Connection struct {
	id    string
	conn  net.Conn
	state int
	log   zerolog.Logger

	readBuf    []byte
	readOffset int
	head       *[]byte // scratch space for response headers

	request  *http.Request
	response *http.Response
	pooled   []byte  // file chunk to hand back to the pool after writing
	page     *[]byte // rendered listing to hand back after writing
	more     bool    // the file has bytes left, expect another range request
}

// serveConn runs the connection state machine until the connection closes
func (e *Engine) serveConn(id string, nc net.Conn) {
	c := &Connection{
		id:      id,
		conn:    nc,
		state:   StateReading,
		readBuf: e.bytePool.Get(e.maxRequestSize),
		head:    e.bufPool.Get(pools.SmallBufferSize),
	}
	c.log = e.log.With().
		Str("conn", c.id).
		Str("remote", nc.RemoteAddr().String()).
		Logger()

	c.log.Debug().Int("active", e.tracker.Active()).Msg("connection opened")

	defer e.closeConnection(c)

	for c.state != StateClosed {
		switch c.state {
		case StateReading:
			e.handleRead(c)
		case StateDispatching:
			e.dispatch(c)
		case StateResponding:
			e.handleWrite(c)
		}
	}
}

// handleRead buffers bytes until a full request head has arrived
func (e *Engine) handleRead(c *Connection) {
	c.readOffset = 0
	for {
		if c.readOffset == len(c.readBuf) {
			c.log.Warn().Err(ErrRequestTooLarge).Int("limit", len(c.readBuf)).Msg("dropping connection")
			c.state = StateClosed
			return
		}

		if e.readTimeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(e.readTimeout))
		}
		n, err := c.conn.Read(c.readBuf[c.readOffset:])
		if n > 0 {
			c.readOffset += n
			c.log.Debug().Int("bytes", n).Int("buffered", c.readOffset).Msg("request received")
			if http.HeaderComplete(c.readBuf[:c.readOffset]) {
				c.state = StateDispatching
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.log.Debug().Err(err).Msg("read failed")
			}
			c.state = StateClosed
			return
		}
		if n == 0 {
			c.state = StateClosed
			return
		}
	}
}

// dispatch turns the buffered request into a response
func (e *Engine) dispatch(c *Connection) {
	c.state = StateResponding
	c.more = false
	c.pooled = nil

	req, err := http.ParseRequest(c.readBuf[:c.readOffset])
	c.request = req
	if err != nil {
		c.log.Info().Err(err).Msg("bad request")
		c.response = http.NewResponse(http.StatusBadRequest)
		return
	}

	c.log.Debug().
		Stringer("method", req.Method).
		Str("path", req.Path).
		Str("host", req.Host).
		Str("real_ip", req.RealIP).
		Str("user_agent", req.UserAgent).
		Msg("request")

	target, err := e.resolver.Resolve(req.Path)
	if err != nil {
		c.response = e.notFound(c, req.Path, err)
		return
	}

	switch target.Kind {
	case files.KindFile:
		chunk, err := files.ReadChunk(target.Path, req.Range, e.transferCap, e.bytePool)
		if err != nil {
			c.response = e.notFound(c, req.Path, err)
			return
		}
		c.response = http.NewResponse(http.StatusOK).WithContent(chunk.Content)
		c.pooled = chunk.Content.Bytes
		c.more = !chunk.EOF

	case files.KindDirectory:
		c.page = e.bufPool.Get(pools.MediumBufferSize)
		page, err := files.AppendIndex(*c.page, req.Path, target.Path)
		if err != nil {
			c.response = e.notFound(c, req.Path, err)
			return
		}
		*c.page = page
		c.response = http.NewResponse(http.StatusOK).WithContent(http.HTML(page))
	}
}

func (e *Engine) notFound(c *Connection, path string, err error) *http.Response {
	if errors.Is(err, files.ErrTraversal) {
		e.counters.traversals.Add(1)
		c.log.Warn().Err(err).Str("path", path).Msg("traversal attempt")
	} else {
		c.log.Debug().Err(err).Str("path", path).Msg("not found")
	}
	body := fmt.Sprintf("404 Not Found: %s", path)
	return http.NewResponse(http.StatusNotFound).WithContent(http.Text(body))
}

// handleWrite sends the response and decides whether the connection stays open
func (e *Engine) handleWrite(c *Connection) {
	resp := c.response
	headOnly := c.request != nil && c.request.IsHead()

	if e.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
	}
	n, err := resp.Send(c.conn, *c.head, headOnly)
	e.release(c)
	e.counters.record(resp.Status, n)

	if err != nil {
		c.log.Debug().Err(err).Msg("write failed")
		c.state = StateClosed
		return
	}

	ev := c.log.Info().Int("status", resp.Status.Code()).Int64("bytes", n).Bool("eof", !c.more)
	if c.request != nil {
		ev = ev.Stringer("method", c.request.Method).Str("path", c.request.Path)
	}
	if resp.Content != nil && resp.Content.Range != nil {
		rg := resp.Content.Range
		ev = ev.Int64("start", rg.Start).Int64("end", rg.End).Int64("total", rg.Total)
	}
	ev.Msg("response")

	// Only a partial chunk that stopped short of the end keeps the socket;
	// the client comes back for the rest on the same connection.
	if resp.Status == http.StatusPartialContent && c.more {
		c.request = nil
		c.response = nil
		c.state = StateReading
		return
	}
	c.state = StateClosed
}

// release hands the buffers of the last response back to their pools
func (e *Engine) release(c *Connection) {
	if c.pooled != nil {
		e.bytePool.Put(c.pooled)
		c.pooled = nil
	}
	if c.page != nil {
		e.bufPool.Put(c.page)
		c.page = nil
	}
}

// closeConnection closes the socket and releases per-connection resources
func (e *Engine) closeConnection(c *Connection) {
	c.conn.Close()
	e.tracker.Remove(c.id)

	if c.readBuf != nil {
		e.bytePool.Put(c.readBuf)
		c.readBuf = nil
	}
	if c.head != nil {
		e.bufPool.Put(c.head)
		c.head = nil
	}
	e.release(c)

	c.log.Debug().Int("active", e.tracker.Active()).Msg("connection closed")
}
