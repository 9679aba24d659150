// Package testutil provides shared test helpers for MolNetEnhancer packages.
package testutil

import (
	"sync"

	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
)

// LogEntry is one entry captured by RecordingLogger.
type LogEntry struct {
	Level   string
	Logger  string
	Message string
	Fields  map[string]interface{}
}

// RecordingLogger implements logging.Logger and keeps every entry in memory.
// Child loggers created by With and Named share the parent's entries.
type RecordingLogger struct {
	store  *entryStore
	name   string
	fields []logging.Field
}

type entryStore struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewRecordingLogger returns an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{store: &entryStore{}}
}

func (r *RecordingLogger) log(level, msg string, fields []logging.Field) {
	all := make(map[string]interface{}, len(r.fields)+len(fields))
	for _, f := range r.fields {
		all[f.Key] = f.Value
	}
	for _, f := range fields {
		all[f.Key] = f.Value
	}
	r.store.mu.Lock()
	r.store.entries = append(r.store.entries, LogEntry{Level: level, Logger: r.name, Message: msg, Fields: all})
	r.store.mu.Unlock()
}

func (r *RecordingLogger) Debug(msg string, fields ...logging.Field) { r.log("debug", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...logging.Field)  { r.log("info", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...logging.Field)  { r.log("warn", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...logging.Field) { r.log("error", msg, fields) }
func (r *RecordingLogger) Fatal(msg string, fields ...logging.Field) { r.log("fatal", msg, fields) }

func (r *RecordingLogger) With(fields ...logging.Field) logging.Logger {
	child := *r
	child.fields = append(append([]logging.Field(nil), r.fields...), fields...)
	return &child
}

func (r *RecordingLogger) Named(name string) logging.Logger {
	child := *r
	if r.name == "" {
		child.name = name
	} else {
		child.name = r.name + "." + name
	}
	return &child
}

// Entries returns a copy of the captured entries, optionally filtered by
// level.
func (r *RecordingLogger) Entries(level ...string) []LogEntry {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []LogEntry
	for _, e := range r.store.entries {
		if len(level) == 0 || e.Level == level[0] {
			out = append(out, e)
		}
	}
	return out
}

// HasMessage reports whether msg was logged at level.
func (r *RecordingLogger) HasMessage(level, msg string) bool {
	for _, e := range r.Entries(level) {
		if e.Message == msg {
			return true
		}
	}
	return false
}

// Reset discards every captured entry.
func (r *RecordingLogger) Reset() {
	r.store.mu.Lock()
	r.store.entries = nil
	r.store.mu.Unlock()
}
