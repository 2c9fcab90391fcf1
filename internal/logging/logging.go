// Package logging builds the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config selects level, encoding and destination. An empty File logs to stderr.
type Config struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	AddSource  bool   `yaml:"add_source"`
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     string(FormatText),
		MaxSizeMB:  20,
		MaxBackups: 5,
	}
}

func (c Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	switch Format(strings.ToLower(strings.TrimSpace(c.Format))) {
	case FormatText, FormatJSON, "":
	default:
		return fmt.Errorf("log.format: invalid %q", c.Format)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 {
		return fmt.Errorf("log: rotation limits must not be negative")
	}
	return nil
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level: invalid %q", value)
	}
}

// New builds a logger tagged with app and version. The returned func closes the
// file sink, if any.
func New(cfg Config, app, version string) (*slog.Logger, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	w, closeFn, err := resolveWriter(cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewWithWriter(w, cfg).With(slog.String("app", app), slog.String("version", version)), closeFn, nil
}

// NewWithWriter builds an untagged logger writing to w. Invalid settings fall
// back to info level text.
func NewWithWriter(w io.Writer, cfg Config) *slog.Logger {
	level, _ := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	var handler slog.Handler
	switch Format(strings.ToLower(strings.TrimSpace(cfg.Format))) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Init builds the logger and installs it as the slog default.
func Init(cfg Config, app, version string) (func() error, error) {
	logger, closeFn, err := New(cfg, app, version)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closeFn, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resolveWriter(cfg Config) (io.Writer, func() error, error) {
	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return os.Stderr, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("log dir: %w", err)
	}
	rot := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	return rot, rot.Close, nil
}
