package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/matthewjablack/dynamicdashboard/internal/logging"
)

const envPrefix = "DASHBOARD_"

// Config holds the application configuration.
type Config struct {
	Listen      string         `yaml:"listen"`
	DBPath      string         `yaml:"database"`
	BasePath    string         `yaml:"base_path"`
	PidFile     string         `yaml:"pid_file"`
	Log         logging.Config `yaml:"log"`
	Layout      LayoutConfig   `yaml:"layout"`
	Session     SessionConfig  `yaml:"session"`
	Auth        AuthConfig     `yaml:"auth"`
	CORSOrigins []string       `yaml:"cors_origins"`
	Gateway     GatewayConfig  `yaml:"gateway"`

	// Parsed from command line (not YAML)
	ConfigPath string `yaml:"-"`
}

// LayoutConfig tunes the grid surface and the save debounce.
type LayoutConfig struct {
	PersistDebounce time.Duration `yaml:"persist_debounce"`
	RowHeight       int           `yaml:"row_height"`
	Margin          [2]int        `yaml:"margin"`
	DraggableHandle string        `yaml:"draggable_handle"`
	DefaultName     string        `yaml:"default_name"`
}

// SessionConfig limits inbound layout session events.
type SessionConfig struct {
	EventsPerSecond float64 `yaml:"events_per_second"`
	Burst           int     `yaml:"burst"`
}

// AuthConfig maps bearer tokens to user ids. With no tokens the trusted header
// set by a fronting proxy names the user.
type AuthConfig struct {
	Tokens        map[string]string `yaml:"tokens"`
	TrustedHeader string            `yaml:"trusted_header"`
}

// GatewayConfig points the CLI at a remote dashboard service.
type GatewayConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8090",
		DBPath:   "dashboard.db",
		BasePath: "/",
		PidFile:  "dashboard.pid",
		Log:      logging.DefaultConfig(),
		Layout: LayoutConfig{
			PersistDebounce: 500 * time.Millisecond,
			RowHeight:       100,
			Margin:          [2]int{16, 16},
			DraggableHandle: ".drag-handle",
			DefaultName:     "My Dashboard",
		},
		Session: SessionConfig{
			EventsPerSecond: 20,
			Burst:           40,
		},
		Auth: AuthConfig{
			TrustedHeader: "X-User-Email",
		},
		Gateway: GatewayConfig{
			URL:     "http://127.0.0.1:8090",
			Timeout: 15 * time.Second,
		},
		ConfigPath: "config.yaml",
	}
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("config", d.ConfigPath, "Path to config.yaml")
	fs.String("listen", d.Listen, "HTTP listen address (host:port)")
	fs.String("db", d.DBPath, "SQLite database path")
	fs.String("base-path", d.BasePath, "Base URL path for reverse proxy")
	fs.String("pid-file", d.PidFile, "PID file path for daemon mode")
	fs.String("log-level", d.Log.Level, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "Log format (text, json)")
	fs.String("log-file", d.Log.File, "Log file path (empty logs to stderr)")
	fs.Duration("persist-debounce", d.Layout.PersistDebounce, "Quiet period before a layout change is saved")
	fs.String("gateway-url", d.Gateway.URL, "Base URL of the remote dashboard service")
	fs.String("gateway-token", "", "Bearer token for the remote dashboard service")
}

// Load reads configuration with priority: defaults < config.yaml < env vars < flags.
// Only flags that were set on the command line override. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()

	// 1) Which file to read; a missing default file is fine
	explicit := false
	if fs != nil && fs.Changed("config") {
		cfg.ConfigPath, _ = fs.GetString("config")
		explicit = true
	}

	// 2) Load YAML config file
	data, err := os.ReadFile(cfg.ConfigPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfg.ConfigPath, err)
		}
		slog.Debug("config loaded", slog.String("component", "config"), slog.String("path", cfg.ConfigPath))
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read %s: %w", cfg.ConfigPath, err)
	}

	// 3) Environment variables override YAML
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// 4) Flags override everything
	if fs != nil {
		if err := applyFlags(cfg, fs); err != nil {
			return nil, err
		}
	}

	cfg.BasePath = normalizeBasePath(cfg.BasePath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(dst *string, name string) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + name)); v != "" {
			*dst = v
		}
	}
	str(&cfg.Listen, "LISTEN")
	str(&cfg.DBPath, "DB")
	str(&cfg.BasePath, "BASE_PATH")
	str(&cfg.PidFile, "PID_FILE")
	str(&cfg.Log.Level, "LOG_LEVEL")
	str(&cfg.Log.Format, "LOG_FORMAT")
	str(&cfg.Log.File, "LOG_FILE")
	str(&cfg.Gateway.URL, "GATEWAY_URL")
	str(&cfg.Gateway.Token, "GATEWAY_TOKEN")
	str(&cfg.Auth.TrustedHeader, "TRUSTED_HEADER")

	if v := os.Getenv(envPrefix + "CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := os.Getenv(envPrefix + "PERSIST_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sPERSIST_DEBOUNCE: %w", envPrefix, err)
		}
		cfg.Layout.PersistDebounce = d
	}
	if v := os.Getenv(envPrefix + "SESSION_EVENTS_PER_SECOND"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sSESSION_EVENTS_PER_SECOND: %w", envPrefix, err)
		}
		cfg.Session.EventsPerSecond = n
	}
	return nil
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	str := func(dst *string, name string) error {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			return nil
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
	for name, dst := range map[string]*string{
		"listen":        &cfg.Listen,
		"db":            &cfg.DBPath,
		"base-path":     &cfg.BasePath,
		"pid-file":      &cfg.PidFile,
		"log-level":     &cfg.Log.Level,
		"log-format":    &cfg.Log.Format,
		"log-file":      &cfg.Log.File,
		"gateway-url":   &cfg.Gateway.URL,
		"gateway-token": &cfg.Gateway.Token,
	} {
		if err := str(dst, name); err != nil {
			return err
		}
	}
	if fs.Lookup("persist-debounce") != nil && fs.Changed("persist-debounce") {
		d, err := fs.GetDuration("persist-debounce")
		if err != nil {
			return err
		}
		cfg.Layout.PersistDebounce = d
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return errors.New("listen: must not be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("database: must not be empty")
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Layout.PersistDebounce < 0 {
		return fmt.Errorf("layout.persist_debounce: negative %s", c.Layout.PersistDebounce)
	}
	if c.Layout.RowHeight <= 0 {
		return fmt.Errorf("layout.row_height: must be positive, got %d", c.Layout.RowHeight)
	}
	if c.Layout.Margin[0] < 0 || c.Layout.Margin[1] < 0 {
		return fmt.Errorf("layout.margin: must not be negative")
	}
	if c.Session.EventsPerSecond <= 0 || c.Session.Burst <= 0 {
		return fmt.Errorf("session: events_per_second and burst must be positive")
	}
	if len(c.Auth.Tokens) == 0 && strings.TrimSpace(c.Auth.TrustedHeader) == "" {
		return errors.New("auth: configure tokens or a trusted_header")
	}
	for token, user := range c.Auth.Tokens {
		if strings.TrimSpace(token) == "" || strings.TrimSpace(user) == "" {
			return errors.New("auth.tokens: empty token or user")
		}
	}
	if c.Gateway.Timeout < 0 {
		return fmt.Errorf("gateway.timeout: negative %s", c.Gateway.Timeout)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath ensures the base path starts with "/" and has no trailing "/".
// Returns "/" for empty or root paths.
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimRight(p, "/")
	return p
}
