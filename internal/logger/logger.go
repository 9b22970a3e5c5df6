package logger

import (
	"io"
	"log"
	"os"
)

// Logger wraps standard log with debug flag
type Logger struct {
	debug bool
	*log.Logger
}

// New creates a new logger writing to stderr
func New(debug bool) *Logger {
	return NewWithWriter(debug, os.Stderr)
}

// NewWithWriter creates a logger writing to w. Info lines are always written,
// debug lines only when debug is enabled.
func NewWithWriter(debug bool, w io.Writer) *Logger {
	if w == nil {
		w = io.Discard
	}
	return &Logger{
		debug:  debug,
		Logger: log.New(w, "", log.LstdFlags),
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *Logger {
	return NewWithWriter(false, io.Discard)
}

// Debug reports whether per-account debug lines are emitted
func (l *Logger) Debug() bool {
	return l != nil && l.debug
}

// Debugf logs if debug is enabled
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.Debug() {
		l.Logger.Printf("debug: "+format, v...)
	}
}

// Printf logs unconditionally
func (l *Logger) Printf(format string, v ...interface{}) {
	if l != nil {
		l.Logger.Printf(format, v...)
	}
}

// Println logs unconditionally
func (l *Logger) Println(v ...interface{}) {
	if l != nil {
		l.Logger.Println(v...)
	}
}

// Fatalf always logs (fatal errors)
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.Logger.Fatalf(format, v...)
}
