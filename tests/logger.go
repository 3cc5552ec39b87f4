package testutil

import (
	"sync"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

type LogEntry struct {
	Level string
	Msg   string
}

// Logger records entries instead of printing them.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return new(Logger) }

func (l *Logger) add(level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg})
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.add("debug", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.add("info", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.add("warn", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.add("error", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.add("fatal", msg) }

// Messages returns the messages logged at level, oldest first.
func (l *Logger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := make([]string, 0)
	for _, e := range l.entries {
		if e.Level == level {
			msgs = append(msgs, e.Msg)
		}
	}
	return msgs
}

func (l *Logger) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
