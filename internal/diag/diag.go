// Package diag provides verbosity-gated diagnostics for standard error.
package diag

import (
	"fmt"
	"io"
)

// A Logger writes progress and error messages. Errors are always printed,
// info needs verbosity 1, debug needs verbosity 2. Messages carry no
// machine-readable contract.
type Logger struct {
	w         io.Writer
	verbosity int
}

func New(w io.Writer, verbosity int) *Logger {
	return &Logger{w: w, verbosity: verbosity}
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	fmt.Fprintf(l.w, format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l.verbosity >= 1 {
		fmt.Fprintf(l.w, format, args...)
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.verbosity >= 2 {
		fmt.Fprintf(l.w, format, args...)
	}
}
