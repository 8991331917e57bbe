package logger

import (
	"io"
	"log"
	"os"
)

// Logger is an alias used by packages for dependency injection.
type Logger = log.Logger

// New returns a standard logger with a consistent prefix. It writes to stderr
// so traces on stdout stay machine-readable.
func New(service string) *Logger {
	return NewWriter(service, os.Stderr)
}

func NewWriter(service string, w io.Writer) *Logger {
	return log.New(w, "["+service+"] ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return log.New(io.Discard, "", 0)
}
