package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvPrefix is the prefix of environment variables read by Load
const EnvPrefix = "STATIC"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	Addr     string `config:"addr" json:"addr"`
	Root     string `config:"root" json:"root"`
	Env      string `config:"env" json:"env"`
	LogLevel string `config:"log.level" json:"log_level"`

	MaxConnections int   `config:"max.connections" json:"max_connections"`
	TransferCap    int64 `config:"transfer.cap" json:"transfer_cap"`
	MaxRequestSize int   `config:"max.request.size" json:"max_request_size"`

	ReadTimeout  time.Duration `config:"read.timeout" json:"read_timeout"`
	WriteTimeout time.Duration `config:"write.timeout" json:"write_timeout"`

	// 0 keeps the runtime defaults
	GCPercent   int   `config:"gc.percent" json:"gc_percent"`
	MemoryLimit int64 `config:"memory.limit" json:"memory_limit"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Addr:           "127.0.0.1:55566",
		Root:           ".",
		Env:            "development",
		LogLevel:       "info",
		MaxConnections: 128,
		TransferCap:    4 << 20,
		MaxRequestSize: 8 << 10,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
	}
}

// Load builds the configuration from, in increasing precedence: defaults,
// the JSON file named by -config, STATIC_* environment variables, flags and
// the positional arguments [addr] [root].
func Load(name string, args []string, output io.Writer) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [addr] [root]\n\nFlags:\n", name)
		fs.PrintDefaults()
	}

	configFile := fs.String("config", "", "JSON configuration file")
	fs.String("addr", cfg.Addr, "address to listen on")
	fs.String("root", cfg.Root, "directory to serve")
	fs.String("env", cfg.Env, "environment (development/production)")
	fs.String("log-level", cfg.LogLevel, "log level (trace/debug/info/warn/error)")
	fs.Int("max-connections", cfg.MaxConnections, "maximum concurrent connections")
	fs.Int64("transfer-cap", cfg.TransferCap, "maximum file bytes per response")
	fs.Int("max-request-size", cfg.MaxRequestSize, "maximum size of a request head in bytes")
	fs.Duration("read-timeout", cfg.ReadTimeout, "read timeout per request (0 disables)")
	fs.Duration("write-timeout", cfg.WriteTimeout, "write timeout per response (0 disables)")
	fs.Int("gc-percent", cfg.GCPercent, "GOGC target percentage (0 keeps the runtime default)")
	fs.Int64("memory-limit", cfg.MemoryLimit, "soft memory limit in bytes (0 means none)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	m := NewManager()
	if *configFile != "" {
		if err := m.LoadFromJSON(*configFile); err != nil {
			return nil, err
		}
	}
	m.LoadFromEnv(EnvPrefix)
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" {
			m.Set(strings.ReplaceAll(f.Name, "-", "."), f.Value.String())
		}
	})

	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		m.Set("addr", rest[0])
	case 2:
		m.Set("addr", rest[0])
		m.Set("root", rest[1])
	default:
		return nil, fmt.Errorf("%w: unexpected arguments %q", ErrInvalidConfig, rest[2:])
	}

	if err := m.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	_, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return fmt.Errorf("%w: addr %q: %v", ErrInvalidConfig, c.Addr, err)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("%w: port %q", ErrInvalidConfig, port)
	}
	if c.Root == "" {
		return fmt.Errorf("%w: empty root", ErrInvalidConfig)
	}
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("%w: env %q", ErrInvalidConfig, c.Env)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("%w: max connections must be positive, got %d", ErrInvalidConfig, c.MaxConnections)
	}
	if c.TransferCap <= 0 {
		return fmt.Errorf("%w: transfer cap must be positive, got %d", ErrInvalidConfig, c.TransferCap)
	}
	if c.MaxRequestSize < 64 {
		return fmt.Errorf("%w: max request size too small: %d", ErrInvalidConfig, c.MaxRequestSize)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if c.MemoryLimit < 0 {
		return fmt.Errorf("%w: negative memory limit", ErrInvalidConfig)
	}
	return nil
}

// IsProduction reports whether the production environment is selected
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
