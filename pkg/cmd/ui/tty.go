// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// TTY writes rendered output to stdout. Warnings and debug output go to
// stderr; debug output is dropped unless enabled.
type TTY struct {
	stdout io.Writer
	stderr io.Writer
	debug  io.Writer
	warn   *color.Color
}

var _ UI = TTY{}

func NewTTY(debug bool) TTY { return NewCustomWriterTTY(debug, nil, nil) }

// NewCustomWriterTTY uses the given writers; nil picks the process's
// standard streams.
func NewCustomWriterTTY(debug bool, stdout, stderr io.Writer) TTY {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	tty := TTY{stdout: stdout, stderr: stderr, debug: io.Discard, warn: color.New(color.FgYellow)}
	if debug {
		tty.debug = stderr
	}
	return tty
}

func (t TTY) Printf(str string, args ...interface{}) { fmt.Fprintf(t.stdout, str, args...) }

// Warnf is yellow when stderr is a terminal.
func (t TTY) Warnf(str string, args ...interface{}) { t.warn.Fprintf(t.stderr, str, args...) }

func (t TTY) Debugf(str string, args ...interface{}) { fmt.Fprintf(t.debug, str, args...) }

func (t TTY) DebugWriter() io.Writer { return t.debug }
