package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewjablack/dynamicdashboard/internal/gateway"
	"github.com/matthewjablack/dynamicdashboard/internal/grid"
	"github.com/matthewjablack/dynamicdashboard/internal/model"
	"github.com/matthewjablack/dynamicdashboard/internal/widget"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

const brokenDashboard = `{
	"id": 7,
	"name": "Desk",
	"components": [{"id": "CCXTChart-1", "type": "CCXTChart", "props": {}}],
	"layouts": {"lg": [
		{"i": "CCXTChart-1", "x": 6, "y": 0, "w": 6, "h": 6, "minW": 4, "minH": 4},
		{"i": "ghost", "x": 0, "y": 0, "w": 2, "h": 2}
	]}
}`

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dashboard dev\n", out)
}

func TestWidgetsListing(t *testing.T) {
	out, _, err := execute(t, "widgets")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(widget.Builtin())+1)
	assert.Contains(t, out, "PRESET")
	assert.Regexp(t, `CCXTChart\s+CCXT Chart\s+chart\s+6x6\s+4x4`, out)
	assert.Regexp(t, `PerpetualSwaps\s+Perpetual Swaps\s+compact_table\s+6x3.5\s+4x2.5`, out)
}

func TestProjectRepairsAndPrintsTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.json")
	require.NoError(t, os.WriteFile(path, []byte(brokenDashboard), 0o644))

	out, errOut, err := execute(t, "project", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, `lg orphan entry for "ghost"`)
	assert.Contains(t, errOut, `md missing entry for "CCXTChart-1"`)
	assert.Contains(t, out, "Desk: 1 widgets, 5 entries repaired")
	for _, bp := range model.Breakpoints() {
		assert.Contains(t, out, "["+string(bp)+"]")
	}
	assert.NotContains(t, out, "ghost")
}

func TestProjectJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.json")
	require.NoError(t, os.WriteFile(path, []byte(brokenDashboard), 0o644))

	out, _, err := execute(t, "project", "--json", path)
	require.NoError(t, err)
	var d model.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Empty(t, d.CheckIntegrity())
	assert.Equal(t, 6, d.Layouts[model.BreakpointLG][0].X, "stored geometry kept")
	xxs := d.Layouts[model.BreakpointXXS][0]
	assert.Equal(t, 0, xxs.X)
	assert.Equal(t, 1.0, xxs.W)
	assert.Equal(t, 2, d.Layouts[model.BreakpointSM][0].X, "clamped to sm columns")
}

func TestProjectBadInput(t *testing.T) {
	_, _, err := execute(t, "project", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNginx(t *testing.T) {
	out, _, err := execute(t, "nginx", "--base-path", "/desk", "--listen", "127.0.0.1:9000")
	require.NoError(t, err)
	assert.Contains(t, out, "location /desk/ {")
	assert.Contains(t, out, "proxy_pass         http://127.0.0.1:9000/desk/;")
	assert.Contains(t, out, "proxy_set_header   X-User-Email $remote_user;")
	assert.Contains(t, out, `#   base_path: "/desk"`)
}

func TestPidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.pid")
	require.NoError(t, writePidFile(path, 4242))
	pid, err := readPidFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)

	require.NoError(t, os.WriteFile(path, []byte("nope\n"), 0o644))
	_, err = readPidFile(path)
	assert.Error(t, err)
}

func TestInspectRepairs(t *testing.T) {
	var updated model.Dashboard
	var updatePath string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[" + brokenDashboard + "]"))
	})
	mux.HandleFunc("/api/dashboard/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		updatePath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&updated)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := gateway.New(srv.URL, "", time.Second)
	require.NoError(t, err)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, inspect(cmd, client, grid.NewPolicy(widget.MustBuiltin()), false))
	assert.Contains(t, out.String(), "#7 Desk: 5 problems")
	assert.Empty(t, updatePath, "read-only without repair")

	out.Reset()
	require.NoError(t, inspect(cmd, client, grid.NewPolicy(widget.MustBuiltin()), true))
	assert.Equal(t, "/api/dashboard/7", updatePath)
	assert.Contains(t, out.String(), "repaired 5 entries")
	assert.Empty(t, updated.CheckIntegrity())
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
