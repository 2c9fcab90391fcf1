package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Listen, cfg.Listen)
	assert.Equal(t, 500*time.Millisecond, cfg.Layout.PersistDebounce)
	assert.Equal(t, "X-User-Email", cfg.Auth.TrustedHeader)
}

func TestPriorityFileEnvFlags(t *testing.T) {
	path := writeFile(t, `
listen: "0.0.0.0:7000"
database: /var/lib/dash.db
base_path: dash/
log:
  level: debug
layout:
  persist_debounce: 250ms
  margin: [8, 4]
session:
  events_per_second: 5
  burst: 10
auth:
  tokens:
    abc: ana@example.com
cors_origins: ["https://app.example.com"]
`)
	t.Setenv("DASHBOARD_DB", "/tmp/env.db")
	t.Setenv("DASHBOARD_LOG_LEVEL", "warn")

	cfg, err := Load(newFlags(t, "--config", path, "--log-level", "error"))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7000", cfg.Listen, "file")
	assert.Equal(t, "/tmp/env.db", cfg.DBPath, "env over file")
	assert.Equal(t, "error", cfg.Log.Level, "flag over env")
	assert.Equal(t, "/dash", cfg.BasePath)
	assert.Equal(t, 250*time.Millisecond, cfg.Layout.PersistDebounce)
	assert.Equal(t, [2]int{8, 4}, cfg.Layout.Margin)
	assert.Equal(t, 100, cfg.Layout.RowHeight, "unset keys keep defaults")
	assert.Equal(t, "ana@example.com", cfg.Auth.Tokens["abc"])
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, path, cfg.ConfigPath)
}

func TestUnchangedFlagsDoNotOverride(t *testing.T) {
	path := writeFile(t, "listen: \"10.0.0.1:80\"\n")
	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:80", cfg.Listen)
}

func TestExplicitMissingFileFails(t *testing.T) {
	_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestBadYAMLFails(t *testing.T) {
	path := writeFile(t, "listen: [unterminated\n")
	_, err := Load(newFlags(t, "--config", path))
	assert.Error(t, err)
}

func TestEnvParseErrors(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DASHBOARD_PERSIST_DEBOUNCE", "soon")
	_, err := Load(nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty listen":      func(c *Config) { c.Listen = "" },
		"negative debounce": func(c *Config) { c.Layout.PersistDebounce = -time.Second },
		"zero row height":   func(c *Config) { c.Layout.RowHeight = 0 },
		"no identity":       func(c *Config) { c.Auth.TrustedHeader = "" },
		"blank token user":  func(c *Config) { c.Auth.Tokens = map[string]string{"t": " "} },
		"bad log level":     func(c *Config) { c.Log.Level = "chatty" },
		"zero burst":        func(c *Config) { c.Session.Burst = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestNormalizeBasePath(t *testing.T) {
	for in, want := range map[string]string{"": "/", "/": "/", "mon": "/mon", "/mon/": "/mon"} {
		assert.Equal(t, want, normalizeBasePath(in), in)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
