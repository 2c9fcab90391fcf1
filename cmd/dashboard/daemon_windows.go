//go:build windows

package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var shutdownSignals = []os.Signal{os.Interrupt}

var errNoDaemon = errors.New("daemon mode is not supported on Windows; use 'run' for foreground execution")

func runStart(*cobra.Command, []string) error  { return errNoDaemon }
func runStop(*cobra.Command, []string) error   { return errNoDaemon }
func runStatus(*cobra.Command, []string) error { return errNoDaemon }
