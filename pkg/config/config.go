// Package config loads the dashboard configuration from a YAML file and
// command-line flags. Flags that are set explicitly override the file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default values.
const (
	DefaultHost             = "192.168.4.1"
	DefaultRetryDelay       = 5000 * time.Millisecond
	DefaultDialTimeout      = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultRequestTimeout   = 15 * time.Second
	DefaultKeepAlive        = 10 * time.Second
	DefaultLogLevel         = "info"
	DefaultDiscoveryService = "_modbee._tcp"
	DefaultDiscoveryDomain  = "local."
	DefaultDiscoveryTimeout = 3 * time.Second
)

// Config is the dashboard configuration.
type Config struct {
	// Host is the controller address; the live channel is ws://<host>/ws.
	Host string `yaml:"host"`

	// RetryDelay is the flat reconnect interval.
	RetryDelay time.Duration `yaml:"retry_delay"`

	DialTimeout    time.Duration `yaml:"dial_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// KeepAlive is the ping interval; zero disables keep-alive.
	KeepAlive time.Duration `yaml:"keepalive"`

	// EventLog is the path of the CBOR event log; empty disables it.
	EventLog string `yaml:"event_log"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Discovery Discovery `yaml:"discovery"`
}

// Discovery configures mDNS browsing for controllers.
type Discovery struct {
	Service string        `yaml:"service"`
	Domain  string        `yaml:"domain"`
	Timeout time.Duration `yaml:"timeout"`

	// Interface restricts browsing to one network interface.
	Interface string `yaml:"interface"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Host:           DefaultHost,
		RetryDelay:     DefaultRetryDelay,
		DialTimeout:    DefaultDialTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		RequestTimeout: DefaultRequestTimeout,
		KeepAlive:      DefaultKeepAlive,
		LogLevel:       DefaultLogLevel,
		Discovery: Discovery{
			Service: DefaultDiscoveryService,
			Domain:  DefaultDiscoveryDomain,
			Timeout: DefaultDiscoveryTimeout,
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.RetryDelay <= 0 {
		errs = append(errs, fmt.Errorf("retry_delay must be positive, got %s", c.RetryDelay))
	}
	for name, d := range map[string]time.Duration{
		"dial_timeout":      c.DialTimeout,
		"write_timeout":     c.WriteTimeout,
		"request_timeout":   c.RequestTimeout,
		"keepalive":         c.KeepAlive,
		"discovery.timeout": c.Discovery.Timeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, d))
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if c.Discovery.Service == "" {
		errs = append(errs, errors.New("discovery.service is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Flags binds configuration flags to a FlagSet.
type Flags struct {
	fs   *flag.FlagSet
	file string
	cfg  Config
}

// RegisterFlags registers the configuration flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs, cfg: Default()}

	fs.StringVar(&f.file, "config", "", "Configuration file path (YAML)")
	fs.StringVar(&f.cfg.Host, "host", f.cfg.Host, "Controller host (live channel is ws://<host>/ws)")
	fs.DurationVar(&f.cfg.RetryDelay, "retry-delay", f.cfg.RetryDelay, "Reconnect interval")
	fs.DurationVar(&f.cfg.DialTimeout, "dial-timeout", f.cfg.DialTimeout, "Connection attempt timeout")
	fs.DurationVar(&f.cfg.WriteTimeout, "write-timeout", f.cfg.WriteTimeout, "Frame write timeout")
	fs.DurationVar(&f.cfg.RequestTimeout, "request-timeout", f.cfg.RequestTimeout, "Wi-Fi request timeout")
	fs.DurationVar(&f.cfg.KeepAlive, "keepalive", f.cfg.KeepAlive, "Ping interval (0 disables)")
	fs.StringVar(&f.cfg.EventLog, "event-log", f.cfg.EventLog, "Write channel events to this file (CBOR)")
	fs.StringVar(&f.cfg.LogLevel, "log-level", f.cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&f.cfg.Discovery.Interface, "interface", f.cfg.Discovery.Interface, "Network interface for mDNS discovery")

	return f
}

// Resolve loads the configuration file, if any, and applies every flag that
// was set explicitly. Call it after fs.Parse.
func (f *Flags) Resolve() (Config, error) {
	cfg := Default()
	if f.file != "" {
		var err error
		if cfg, err = Load(f.file); err != nil {
			return Config{}, err
		}
	}

	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "host":
			cfg.Host = f.cfg.Host
		case "retry-delay":
			cfg.RetryDelay = f.cfg.RetryDelay
		case "dial-timeout":
			cfg.DialTimeout = f.cfg.DialTimeout
		case "write-timeout":
			cfg.WriteTimeout = f.cfg.WriteTimeout
		case "request-timeout":
			cfg.RequestTimeout = f.cfg.RequestTimeout
		case "keepalive":
			cfg.KeepAlive = f.cfg.KeepAlive
		case "event-log":
			cfg.EventLog = f.cfg.EventLog
		case "log-level":
			cfg.LogLevel = f.cfg.LogLevel
		case "interface":
			cfg.Discovery.Interface = f.cfg.Discovery.Interface
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
