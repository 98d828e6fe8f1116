// Package bflog is a thin wrapper around the standard log.Logger, adding
// a verbosity gate. Grounded on cmd/run68/main.go's log.SetFlags(0) style
// of clean, unprefixed CLI messages, generalized so the verbose IR-dump
// path (-v) can be toggled on and off in one place instead of being
// scattered across call sites as `if verbose { log.Printf(...) }`.
package bflog

import (
	"io"
	"log"
	"os"
)

// Logger logs plain progress messages unconditionally and Debug messages
// only when Verbose is true.
type Logger struct {
	*log.Logger
	Verbose bool
}

// New returns a Logger writing to w with the teacher's clean
// (no timestamp, no prefix) formatting.
func New(w io.Writer, verbose bool) *Logger {
	return &Logger{Logger: log.New(w, "", 0), Verbose: verbose}
}

// Default returns a Logger writing to stderr, matching the CLI's
// stderr-equivalent stage-progress channel from spec.md §6.
func Default(verbose bool) *Logger {
	return New(os.Stderr, verbose)
}

// Debugf logs a formatted message only when Verbose is set; otherwise it
// is a no-op, matching spec.md's "-v emits stage progress and IR dump,
// otherwise silent" contract.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.Verbose {
		return
	}
	l.Printf(format, args...)
}
