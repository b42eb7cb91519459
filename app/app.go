package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/searchktools/static-server/config"
	"github.com/searchktools/static-server/core"
	"github.com/searchktools/static-server/core/pools"
)

// App wires configuration, logging and the engine together
type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	engine *core.Engine
}

// New creates an application instance logging to stderr
func New(cfg *config.Config) (*App, error) {
	return NewWithLogger(cfg, NewLogger(cfg, os.Stderr))
}

// NewWithLogger creates an application instance with a caller-supplied logger
func NewWithLogger(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	engine, err := core.NewEngine(core.Options{
		Root:           cfg.Root,
		MaxConnections: cfg.MaxConnections,
		TransferCap:    cfg.TransferCap,
		MaxRequestSize: cfg.MaxRequestSize,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:    cfg,
		log:    logger,
		engine: engine,
	}, nil
}

// NewLogger builds the process logger: human-readable output in
// development, JSON lines in production.
func NewLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if !cfg.IsProduction() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Engine returns the underlying engine
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	prev := pools.ApplyGCConfig(pools.GCConfig{
		Percent:     a.cfg.GCPercent,
		MemoryLimit: a.cfg.MemoryLimit,
	})
	defer pools.RestoreGCConfig(prev)

	a.log.Info().
		Str("addr", a.cfg.Addr).
		Str("env", a.cfg.Env).
		Msg("starting static file server")

	err := a.engine.ListenAndServe(ctx, a.cfg.Addr)

	stats := a.engine.Stats()
	gc := pools.ReadGCStats()
	a.log.Info().
		Uint64("connections", stats.Connections.Opened).
		Int64("peak_connections", stats.Connections.Peak).
		Uint64("responses", stats.Responses.Total()).
		Uint64("bytes_sent", stats.BytesSent).
		Uint32("gc_cycles", gc.NumGC).
		Dur("gc_pause_total", gc.PauseTotal).
		Msg("shutdown complete")
	return err
}
