package rbhlog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryWithBuffer() (*logrus.Entry, *bytes.Buffer) {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	return logrus.NewEntry(l), buf
}

func TestNewAttachesRunID(t *testing.T) {
	base, buf := entryWithBuffer()
	Base = base.Logger
	entry := New("run-1")
	entry.Info("started")

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	assert.Equal(t, "run-1", fields[FieldRunID])
}

func TestWithConsumerAndBackendStack(t *testing.T) {
	base, buf := entryWithBuffer()
	entry := base.WithField(FieldRunID, "run-2")
	entry = WithConsumer(entry, 3)
	entry = WithBackend(entry, "mongo-mirror")
	entry.Warn("scoped")

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	assert.Equal(t, "run-2", fields[FieldRunID])
	assert.Equal(t, float64(3), fields[FieldConsumer])
	assert.Equal(t, "mongo-mirror", fields[FieldBackend])
}

func TestDiscardWritesNowhereButDoesNotPanic(t *testing.T) {
	entry := Discard()
	require.NotNil(t, entry)
	entry.Info("swallowed")
}
