package core

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"

	"github.com/searchktools/static-server/core/files"
	"github.com/searchktools/static-server/core/pools"
)

// Options configures an Engine. Zero values fall back to the defaults.
type Options struct {
	Root           string
	MaxConnections int
	TransferCap    int64
	MaxRequestSize int
	ReadTimeout    time.Duration // 0 disables the deadline
	WriteTimeout   time.Duration // 0 disables the deadline
	Logger         zerolog.Logger
}

// Engine serves files under a root directory, one goroutine per connection
type Engine struct {
	resolver *files.Resolver
	log      zerolog.Logger

	maxConnections int
	transferCap    int64
	maxRequestSize int
	readTimeout    time.Duration
	writeTimeout   time.Duration

	bytePool *pools.BytePool
	bufPool  *pools.BufferPool
	tracker  *pools.ConnTracker
	counters counters

	wg sync.WaitGroup
}

// NewEngine creates a new engine instance
func NewEngine(opts Options) (*Engine, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	resolver, err := files.NewResolver(opts.Root)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		resolver:       resolver,
		log:            opts.Logger,
		maxConnections: opts.MaxConnections,
		transferCap:    opts.TransferCap,
		maxRequestSize: opts.MaxRequestSize,
		readTimeout:    opts.ReadTimeout,
		writeTimeout:   opts.WriteTimeout,
		bufPool:        pools.NewBufferPool(),
		tracker:        pools.NewConnTracker(),
	}
	if e.maxConnections <= 0 {
		e.maxConnections = DefaultMaxConnections
	}
	if e.transferCap <= 0 {
		e.transferCap = DefaultTransferCap
	}
	if e.maxRequestSize <= 0 {
		e.maxRequestSize = DefaultMaxRequestSize
	}

	// One tier for request heads, one for full file chunks, a few in between
	// for small files.
	e.bytePool = pools.NewBytePoolWithSizes([]int{
		e.maxRequestSize,
		min(int(e.transferCap), 64<<10),
		min(int(e.transferCap), 1<<20),
		int(e.transferCap),
	})

	e.log.Debug().
		Str("root", resolver.Root()).
		Int("max_connections", e.maxConnections).
		Int64("transfer_cap", e.transferCap).
		Ints("buffer_tiers", e.bytePool.Sizes()).
		Msg("engine initialized")

	return e, nil
}

// Root returns the canonical directory files are served from
func (e *Engine) Root() string {
	return e.resolver.Root()
}

// ListenAndServe listens on addr and serves until ctx is cancelled
func (e *Engine) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return e.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed.
// At most maxConnections are served at once; further connections wait in
// the accept backlog until a slot frees. On return every connection has
// been closed and its goroutine has finished. A cancelled ctx yields nil.
func (e *Engine) Serve(ctx context.Context, ln net.Listener) error {
	ln = netutil.LimitListener(tuningListener{ln}, e.maxConnections)
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	e.log.Info().
		Str("addr", ln.Addr().String()).
		Str("root", e.resolver.Root()).
		Msg("listening")

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				e.shutdown()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				e.shutdown()
				return ErrEngineClosed
			}

			// Out of file descriptors and friends: back off like net/http
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay = min(2*tempDelay, time.Second)
			}
			e.log.Error().Err(err).Dur("retry_in", tempDelay).Msg("accept failed")
			select {
			case <-time.After(tempDelay):
			case <-ctx.Done():
			}
			continue
		}
		tempDelay = 0

		// Registered before the goroutine starts so shutdown never misses it
		id := uuid.NewString()
		e.tracker.Add(id, conn)

		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.serveConn(id, conn)
		}()
	}
}

// shutdown closes live connections and waits for their goroutines
func (e *Engine) shutdown() {
	active := e.tracker.Active()
	e.tracker.CloseAll()
	e.wg.Wait()
	e.log.Info().Int("closed_connections", active).Msg("engine stopped")
}

// tuningListener applies socket options to every accepted connection
type tuningListener struct {
	net.Listener
}

func (l tuningListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// best effort, the connection works without them
		_ = tuneTCPConn(tc)
	}
	return conn, nil
}
