// Package rbhlog centralises the structured logging conventions used
// across the pipeline: a consumer index, a backend name, a batch or
// run identifier. It wraps logrus the way rclone's own dependency
// stack pulls in github.com/sirupsen/logrus for leveled, field-based
// diagnostics instead of the standard library's bare log package.
package rbhlog

import (
	"github.com/sirupsen/logrus"
)

// Fields are the well-known structured fields this module's
// components attach to log entries.
const (
	FieldRunID    = "run_id"
	FieldConsumer = "consumer"
	FieldBackend  = "backend"
	FieldBatchID  = "batch_id"
	FieldID       = "id"
)

// Base is the package-wide default logger. Components accept a
// *logrus.Entry so tests can inject an isolated logger instead of
// mutating global state.
var Base = logrus.New()

// New returns a fresh entry scoped to a pipeline run.
func New(runID string) *logrus.Entry {
	return Base.WithField(FieldRunID, runID)
}

// WithConsumer returns a copy of entry scoped to one consumer.
func WithConsumer(entry *logrus.Entry, index int) *logrus.Entry {
	return entry.WithField(FieldConsumer, index)
}

// WithBackend returns a copy of entry scoped to one backend name.
func WithBackend(entry *logrus.Entry, name string) *logrus.Entry {
	return entry.WithField(FieldBackend, name)
}

// Discard returns an entry that writes nowhere, for tests that do not
// want to assert on log output but still need a non-nil logger.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return logrus.NewEntry(l)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
