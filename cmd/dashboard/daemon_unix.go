//go:build !windows

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthewjablack/dynamicdashboard/internal/config"
)

const defaultDaemonLog = "dashboard.log"

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if pid, err := readPidFile(cfg.PidFile); err == nil {
		if processExists(pid) {
			return fmt.Errorf("%s is already running (PID %d)", appName, pid)
		}
		// Stale PID file
		os.Remove(cfg.PidFile)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	// The child has no terminal, so it always logs to a file.
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = defaultDaemonLog
	}
	childArgs := []string{"run", "--config", cfg.ConfigPath, "--log-file", logFile}
	childArgs = append(childArgs, forwardedFlags(cmd)...)

	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer devNull.Close()

	child := &exec.Cmd{
		Path:   exe,
		Args:   append([]string{filepath.Base(exe)}, childArgs...),
		Stdout: devNull,
		Stderr: devNull,
		SysProcAttr: &syscall.SysProcAttr{
			Setsid: true, // detach from terminal
		},
	}
	if err := child.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	pid := child.Process.Pid
	if err := writePidFile(cfg.PidFile, pid); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to write PID file: %v\n", err)
	}
	child.Process.Release()

	fmt.Fprintf(out, "%s started (PID %d)\n", appName, pid)
	printDaemonInfo(cmd, cfg, logFile)
	return nil
}

// forwardedFlags repeats the explicitly set flags the daemon child needs.
func forwardedFlags(cmd *cobra.Command) []string {
	var args []string
	for _, name := range []string{"listen", "db", "base-path", "log-level", "log-format", "persist-debounce"} {
		f := cmd.Flags().Lookup(name)
		if f != nil && f.Changed {
			args = append(args, "--"+name, f.Value.String())
		}
	}
	return args
}

func runStop(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	pid, err := readPidFile(cfg.PidFile)
	if err != nil {
		return fmt.Errorf("%s is not running (no PID file: %s)", appName, cfg.PidFile)
	}
	if !processExists(pid) {
		os.Remove(cfg.PidFile)
		return fmt.Errorf("%s is not running (stale PID %d)", appName, pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("stop PID %d: %w", pid, err)
	}

	// Open sessions flush their last layout change on the way out.
	deadline := time.Now().Add(shutdownTimeout + 2*time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		if !processExists(pid) {
			os.Remove(cfg.PidFile)
			fmt.Fprintf(out, "%s stopped (PID %d)\n", appName, pid)
			return nil
		}
	}

	fmt.Fprintf(out, "%s stop signal sent (PID %d), waiting for exit...\n", appName, pid)
	os.Remove(cfg.PidFile)
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	pid, err := readPidFile(cfg.PidFile)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(out, "%s is stopped\n", appName)
		return errStopped
	}
	if err != nil {
		return err
	}
	if !processExists(pid) {
		fmt.Fprintf(out, "%s is stopped (stale PID file, was PID %d)\n", appName, pid)
		os.Remove(cfg.PidFile)
		return errStopped
	}
	fmt.Fprintf(out, "%s is running (PID %d)\n", appName, pid)
	printDaemonInfo(cmd, cfg, cfg.Log.File)
	return nil
}

func printDaemonInfo(cmd *cobra.Command, cfg *config.Config, logFile string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Listen : http://%s\n", cfg.Listen)
	fmt.Fprintf(out, "  Base   : %s\n", cfg.BasePath)
	fmt.Fprintf(out, "  Config : %s\n", cfg.ConfigPath)
	fmt.Fprintf(out, "  PID    : %s\n", cfg.PidFile)
	if logFile != "" {
		fmt.Fprintf(out, "  Log    : %s\n", logFile)
	}
}

func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 checks existence without actually sending a signal
	return proc.Signal(syscall.Signal(0)) == nil
}
