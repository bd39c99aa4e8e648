// Package config resolves runtime settings. Precedence, highest first:
// command-line flags, environment, .env file, TOML config file, defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the settings shared by cmd/server and cmd/feedctl.
type Config struct {
	HTTPAddr      string `toml:"http_addr"`      // COINFEED_HTTP_ADDR (default ":8080")
	PostgresDSN   string `toml:"postgres_dsn"`   // POSTGRES_DSN
	ClickhouseDSN string `toml:"clickhouse_dsn"` // CLICKHOUSE_DSN (optional, enables the chart archive)
	NATSURL       string `toml:"nats_url"`       // NATS_URL (optional, empty = no NATS publishing)
	UseMemory     bool   `toml:"use_memory"`     // COINFEED_USE_MEMORY
	Migrate       bool   `toml:"migrate"`        // COINFEED_MIGRATE, apply migrations on start
	LogLevel      string `toml:"log_level"`      // COINFEED_LOG_LEVEL (default "info")

	// Postgres pool, 0 keeps the pgx default
	PGMaxConns int `toml:"pg_max_conns"` // COINFEED_PG_MAX_CONNS
	PGMinConns int `toml:"pg_min_conns"` // COINFEED_PG_MIN_CONNS

	// Websocket hub
	WSSendBuffer int     `toml:"ws_send_buffer"` // COINFEED_WS_SEND_BUFFER
	WSFrameRate  float64 `toml:"ws_frame_rate"`  // COINFEED_WS_FRAME_RATE, client frames per second
	WSFrameBurst int     `toml:"ws_frame_burst"` // COINFEED_WS_FRAME_BURST

	ShutdownTimeout time.Duration `toml:"shutdown_timeout"` // COINFEED_SHUTDOWN_TIMEOUT (default 30s)
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		WSSendBuffer:    256,
		WSFrameRate:     5,
		WSFrameBurst:    20,
		ShutdownTimeout: 30 * time.Second,
	}
}

// LoadFile overlays the TOML file at path onto cfg. Keys absent from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("read config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overlays set environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	setString(&cfg.HTTPAddr, "COINFEED_HTTP_ADDR")
	setString(&cfg.PostgresDSN, "POSTGRES_DSN")
	setString(&cfg.ClickhouseDSN, "CLICKHOUSE_DSN")
	setString(&cfg.NATSURL, "NATS_URL")
	setString(&cfg.LogLevel, "COINFEED_LOG_LEVEL")

	var errs []error
	errs = append(errs,
		setParsed(&cfg.UseMemory, "COINFEED_USE_MEMORY", strconv.ParseBool),
		setParsed(&cfg.Migrate, "COINFEED_MIGRATE", strconv.ParseBool),
		setParsed(&cfg.PGMaxConns, "COINFEED_PG_MAX_CONNS", strconv.Atoi),
		setParsed(&cfg.PGMinConns, "COINFEED_PG_MIN_CONNS", strconv.Atoi),
		setParsed(&cfg.WSSendBuffer, "COINFEED_WS_SEND_BUFFER", strconv.Atoi),
		setParsed(&cfg.WSFrameRate, "COINFEED_WS_FRAME_RATE", func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		}),
		setParsed(&cfg.WSFrameBurst, "COINFEED_WS_FRAME_BURST", strconv.Atoi),
		setParsed(&cfg.ShutdownTimeout, "COINFEED_SHUTDOWN_TIMEOUT", time.ParseDuration),
	)
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setParsed[T any](dst *T, key string, parse func(string) (T, error)) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := parse(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

// LoadEnvFile loads environment variables from path if it exists.
// Variables already set in the environment win.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
}

// Resolve builds a Config from defaults, the TOML file at path (skipped when
// empty), the .env file in the working directory and the environment.
func Resolve(path string) (Config, error) {
	LoadEnvFile(".env")

	cfg := Default()
	if path == "" {
		path = os.Getenv("COINFEED_CONFIG")
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RegisterFlags binds cfg fields to fs. Current values become flag defaults,
// so flags override everything resolved before.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "HTTP listen address (feed, health, metrics)")
	fs.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "PostgreSQL connection string")
	fs.StringVar(&c.ClickhouseDSN, "clickhouse-dsn", c.ClickhouseDSN, "ClickHouse connection string for the chart archive")
	fs.StringVar(&c.NATSURL, "nats-url", c.NATSURL, "NATS server URL for envelope publishing")
	fs.BoolVar(&c.UseMemory, "use-memory", c.UseMemory, "Use in-memory storage instead of PostgreSQL")
	fs.BoolVar(&c.Migrate, "migrate", c.Migrate, "Apply database migrations on start")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.IntVar(&c.PGMaxConns, "pg-max-conns", c.PGMaxConns, "Maximum Postgres pool connections (0 = pgx default)")
	fs.IntVar(&c.PGMinConns, "pg-min-conns", c.PGMinConns, "Minimum idle Postgres pool connections")
	fs.IntVar(&c.WSSendBuffer, "ws-send-buffer", c.WSSendBuffer, "Per-client websocket queue length")
	fs.Float64Var(&c.WSFrameRate, "ws-frame-rate", c.WSFrameRate, "Client control frames allowed per second")
	fs.IntVar(&c.WSFrameBurst, "ws-frame-burst", c.WSFrameBurst, "Client control frame burst")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "Graceful shutdown timeout")
}

// Load resolves the full configuration for a command. The config file path
// comes from -config in args or COINFEED_CONFIG.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	path := configPath(args)

	cfg, err := Resolve(path)
	if err != nil {
		return Config{}, err
	}

	cfg.RegisterFlags(fs)
	fs.String("config", path, "TOML config file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// configPath finds -config/--config in args without parsing the other flags.
func configPath(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// Validate checks that the settings are usable by the server.
func (c Config) Validate() error {
	if !c.UseMemory && c.PostgresDSN == "" {
		return errors.New("postgres DSN is required (use --use-memory for in-memory storage)")
	}
	if c.HTTPAddr == "" {
		return errors.New("http address is required")
	}
	if c.PGMaxConns < 0 || c.PGMinConns < 0 {
		return errors.New("postgres pool sizes must not be negative")
	}
	if c.PGMaxConns > 0 && c.PGMinConns > c.PGMaxConns {
		return fmt.Errorf("pg min conns %d exceeds max conns %d", c.PGMinConns, c.PGMaxConns)
	}
	if c.WSSendBuffer <= 0 {
		return fmt.Errorf("ws send buffer must be positive, got %d", c.WSSendBuffer)
	}
	if c.WSFrameRate <= 0 || c.WSFrameBurst <= 0 {
		return errors.New("ws frame rate and burst must be positive")
	}
	return nil
}
