package core

import (
	"errors"
	"time"
)

// Engine defaults
const (
	DefaultMaxConnections = 128
	DefaultTransferCap    = 4 << 20 // bytes of file data per response
	DefaultMaxRequestSize = 8 << 10 // bytes buffered for one request head
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
)

// Connection states
const (
	StateReading = iota
	StateDispatching
	StateResponding
	StateClosed
)

// Error definitions
var (
	ErrEngineClosed    = errors.New("engine: listener closed")
	ErrRequestTooLarge = errors.New("engine: request head exceeds buffer")
)
