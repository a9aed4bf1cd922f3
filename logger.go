package vhttp

import (
	"log"
	"sync/atomic"
	"testing"
)

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogUnhandledDispatchError(err error)
	LogFlushError(err error)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogUnhandledDispatchError(err error) {
	l.Logger.Printf("vhttp: unhandled dispatch error: %s", err)
}

func (l stdLogger) LogFlushError(err error) {
	l.Logger.Printf("vhttp: error while flushing: %s", err)
}

// NewStdLogger adapts a standard library logger.
func NewStdLogger(l *log.Logger) Logger {
	return stdLogger{l}
}

// TestLogger counts log calls so tests can assert on them. A nil tb only
// counts, which examples rely on.
type TestLogger struct {
	tb testing.TB

	NumLogUnhandledDispatchError int64
	NumLogFlushError             int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogUnhandledDispatchError(err error) {
	atomic.AddInt64(&l.NumLogUnhandledDispatchError, 1)
	if l.tb != nil {
		l.tb.Logf("vhttp: unhandled dispatch error: %s", err)
	}
}

func (l *TestLogger) LogFlushError(err error) {
	atomic.AddInt64(&l.NumLogFlushError, 1)
	if l.tb != nil {
		l.tb.Logf("vhttp: error while flushing: %s", err)
	}
}

var _ Logger = &TestLogger{}
