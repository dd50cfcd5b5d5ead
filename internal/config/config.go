package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file read from the config directory.
const FileName = "gsapi.toml"

// Connection defaults.
const (
	DefaultPort      uint16 = 28542
	DefaultHost             = "127.0.0.1"
	DefaultCodec            = "UTF-8"
	DefaultDelimiter        = "\r"
)

// ConnectionConfig says where the Tool listens and how requests are framed.
type ConnectionConfig struct {
	Port      uint16
	Host      string
	Codec     string
	Delimiter string
}

// DefaultConnection returns the Tool's factory settings.
func DefaultConnection() ConnectionConfig {
	return ConnectionConfig{
		Port:      DefaultPort,
		Host:      DefaultHost,
		Codec:     DefaultCodec,
		Delimiter: DefaultDelimiter,
	}
}

// Addr returns host:port.
func (c ConnectionConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// Validate checks the field constraints of the data model.
func (c ConnectionConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port == 0 {
		return fmt.Errorf("port must be non-zero")
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be exactly one character, got %q", c.Delimiter)
	}
	return nil
}

// Timing holds the transport's timeouts and retry budgets.
type Timing struct {
	DialTimeout    time.Duration
	SettleDelay    time.Duration
	ReceiveTimeout time.Duration
	RetryInterval  time.Duration
	// MaxRetries is the number of receive attempts after the first.
	MaxRetries        int
	MaxSendInterrupts int
	BufferSize        int
	MaxResponseBytes  int
}

// DefaultTiming returns the Tool's documented receive budget: a 4096-byte
// buffer, 1s per read, ten retries 100ms apart, after a 100ms settle.
func DefaultTiming() Timing {
	return Timing{
		DialTimeout:       5 * time.Second,
		SettleDelay:       100 * time.Millisecond,
		ReceiveTimeout:    time.Second,
		RetryInterval:     100 * time.Millisecond,
		MaxRetries:        10,
		MaxSendInterrupts: 10,
		BufferSize:        4096,
		MaxResponseBytes:  1 << 20,
	}
}

// Validate rejects negative durations and unusable buffer sizes.
func (t Timing) Validate() error {
	for name, d := range map[string]time.Duration{
		"dial_timeout":    t.DialTimeout,
		"settle_delay":    t.SettleDelay,
		"receive_timeout": t.ReceiveTimeout,
		"retry_interval":  t.RetryInterval,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if t.MaxRetries < 0 || t.MaxSendInterrupts < 0 {
		return fmt.Errorf("retry counts must not be negative")
	}
	if t.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive")
	}
	if t.MaxResponseBytes < t.BufferSize {
		return fmt.Errorf("max_response_bytes must be at least buffer_size")
	}
	return nil
}

// WorstCase is the longest a single exchange can block once connected.
func (t Timing) WorstCase() time.Duration {
	attempts := time.Duration(t.MaxRetries + 1)
	return t.SettleDelay + attempts*t.ReceiveTimeout + time.Duration(t.MaxRetries)*t.RetryInterval
}

// CatalogConfig locates the local patch catalog database.
type CatalogConfig struct {
	Path string
}

// Config is the full configuration loaded from gsapi.toml.
type Config struct {
	Connection ConnectionConfig
	Timing     Timing
	Catalog    CatalogConfig
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Connection: DefaultConnection(),
		Timing:     DefaultTiming(),
	}
}

// Validate checks connection and timing settings.
func (c *Config) Validate() error {
	if err := c.Connection.Validate(); err != nil {
		return fmt.Errorf("connection: %w", err)
	}
	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("timing: %w", err)
	}
	return nil
}

// DefaultDir returns $GSAPI_HOME, or ~/.gsapi.
func DefaultDir() string {
	if dir := os.Getenv("GSAPI_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".gsapi")
	}
	return filepath.Join(home, ".gsapi")
}

// fileConfig is the on-disk shape. Durations are strings ("100ms") and
// counts are pointers so an explicit zero is distinguishable from absent.
type fileConfig struct {
	Connection fileConnection `toml:"connection"`
	Timing     fileTiming     `toml:"timing"`
	Catalog    fileCatalog    `toml:"catalog"`
}

type fileConnection struct {
	Host      string `toml:"host,omitempty"`
	Port      int    `toml:"port,omitempty"`
	Codec     string `toml:"codec,omitempty"`
	Delimiter string `toml:"delimiter,omitempty"`
}

type fileTiming struct {
	DialTimeout       string `toml:"dial_timeout,omitempty"`
	SettleDelay       string `toml:"settle_delay,omitempty"`
	ReceiveTimeout    string `toml:"receive_timeout,omitempty"`
	RetryInterval     string `toml:"retry_interval,omitempty"`
	MaxRetries        *int   `toml:"max_retries,omitempty"`
	MaxSendInterrupts *int   `toml:"max_send_interrupts,omitempty"`
	BufferSize        *int   `toml:"buffer_size,omitempty"`
	MaxResponseBytes  *int   `toml:"max_response_bytes,omitempty"`
}

type fileCatalog struct {
	Path string `toml:"path,omitempty"`
}

// Load reads gsapi.toml from dir if present, applies GSAPI_* environment
// overrides, and validates the result. File values beat defaults and
// environment values beat file values.
func Load(dir string) (*Config, error) {
	cfg := Default()
	path := filepath.Join(dir, FileName)

	if _, err := os.Stat(path); err == nil {
		var raw fileConfig
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := raw.apply(cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = filepath.Join(dir, "catalog.db")
	} else if !filepath.IsAbs(cfg.Catalog.Path) {
		cfg.Catalog.Path = filepath.Join(dir, cfg.Catalog.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (raw fileConfig) apply(cfg *Config) error {
	c := raw.Connection
	if c.Host != "" {
		cfg.Connection.Host = c.Host
	}
	if c.Port != 0 {
		if c.Port < 0 || c.Port > 65535 {
			return fmt.Errorf("connection.port %d out of range", c.Port)
		}
		cfg.Connection.Port = uint16(c.Port)
	}
	if c.Codec != "" {
		cfg.Connection.Codec = c.Codec
	}
	if c.Delimiter != "" {
		cfg.Connection.Delimiter = c.Delimiter
	}

	t := raw.Timing
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"dial_timeout", t.DialTimeout, &cfg.Timing.DialTimeout},
		{"settle_delay", t.SettleDelay, &cfg.Timing.SettleDelay},
		{"receive_timeout", t.ReceiveTimeout, &cfg.Timing.ReceiveTimeout},
		{"retry_interval", t.RetryInterval, &cfg.Timing.RetryInterval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return fmt.Errorf("timing.%s: %w", d.name, err)
		}
		*d.dst = v
	}
	for _, n := range []struct {
		src *int
		dst *int
	}{
		{t.MaxRetries, &cfg.Timing.MaxRetries},
		{t.MaxSendInterrupts, &cfg.Timing.MaxSendInterrupts},
		{t.BufferSize, &cfg.Timing.BufferSize},
		{t.MaxResponseBytes, &cfg.Timing.MaxResponseBytes},
	} {
		if n.src != nil {
			*n.dst = *n.src
		}
	}

	if raw.Catalog.Path != "" {
		cfg.Catalog.Path = raw.Catalog.Path
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("GSAPI_HOST"); host != "" {
		cfg.Connection.Host = host
	}
	if port := os.Getenv("GSAPI_PORT"); port != "" {
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return fmt.Errorf("GSAPI_PORT: %w", err)
		}
		cfg.Connection.Port = uint16(p)
	}
	if codec := os.Getenv("GSAPI_CODEC"); codec != "" {
		cfg.Connection.Codec = codec
	}
	if delim := os.Getenv("GSAPI_DELIMITER"); delim != "" {
		cfg.Connection.Delimiter = delim
	}
	if v := os.Getenv("GSAPI_SETTLE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GSAPI_SETTLE_DELAY: %w", err)
		}
		cfg.Timing.SettleDelay = d
	}
	if v := os.Getenv("GSAPI_RECEIVE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GSAPI_RECEIVE_TIMEOUT: %w", err)
		}
		cfg.Timing.ReceiveTimeout = d
	}
	return nil
}

// Save writes cfg to gsapi.toml inside dir, creating the directory if
// necessary.
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	t := c.Timing
	raw := fileConfig{
		Connection: fileConnection{
			Host:      c.Connection.Host,
			Port:      int(c.Connection.Port),
			Codec:     c.Connection.Codec,
			Delimiter: c.Connection.Delimiter,
		},
		Timing: fileTiming{
			DialTimeout:       t.DialTimeout.String(),
			SettleDelay:       t.SettleDelay.String(),
			ReceiveTimeout:    t.ReceiveTimeout.String(),
			RetryInterval:     t.RetryInterval.String(),
			MaxRetries:        &t.MaxRetries,
			MaxSendInterrupts: &t.MaxSendInterrupts,
			BufferSize:        &t.BufferSize,
			MaxResponseBytes:  &t.MaxResponseBytes,
		},
		Catalog: fileCatalog{Path: c.Catalog.Path},
	}

	if err := toml.NewEncoder(f).Encode(raw); err != nil {
		return fmt.Errorf("encoding %s: %w", FileName, err)
	}
	return nil
}

// Store holds the active ConnectionConfig. It is safe for concurrent use;
// readers always see a complete value.
type Store struct {
	mu  sync.RWMutex
	cfg ConnectionConfig
}

// NewStore returns a Store seeded with cfg.
func NewStore(cfg ConnectionConfig) *Store {
	return &Store{cfg: cfg}
}

// Get returns the current configuration.
func (s *Store) Get() ConnectionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Set replaces the configuration after validating it.
func (s *Store) Set(cfg ConnectionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}
