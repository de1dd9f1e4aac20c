package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/kvsync/internal/logging"
)

// TestLogger is a real logging.Logger writing uncolored output to a buffer.
//
// Example usage:
//
//	logger := NewTestLogger(t)
//	engine := transfer.NewEngine(fake, transfer.WithLogger(logger.Logger))
//	// ...
//	logger.AssertContains(t, "Secret db-pass pulled successfully")
//	logger.AssertNotContains(t, "hunter2")
type TestLogger struct {
	*logging.Logger

	buffer *syncBuffer
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// NewTestLogger creates a TestLogger with debug output disabled.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()
	return NewTestLoggerWithDebug(t, false)
}

// NewTestLoggerWithDebug creates a TestLogger, capturing Debug lines when debug is true.
func NewTestLoggerWithDebug(t *testing.T, debug bool) *TestLogger {
	t.Helper()

	buf := &syncBuffer{}
	return &TestLogger{
		Logger: logging.NewWithWriter(buf, debug, true),
		buffer: buf,
	}
}

// GetOutput returns everything logged since creation or the last Clear.
func (l *TestLogger) GetOutput() string {
	return l.buffer.String()
}

// Clear empties the buffer.
func (l *TestLogger) Clear() {
	l.buffer.Reset()
}

// Lines returns the non-empty output lines.
func (l *TestLogger) Lines() []string {
	var lines []string
	for _, line := range strings.Split(l.GetOutput(), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// AssertContains checks that the output contains substr.
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.GetOutput(), substr)
}

// AssertNotContains checks that the output does not contain substr.
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, l.GetOutput(), substr)
}

// AssertRedacted checks that secretValue never reached the output.
func (l *TestLogger) AssertRedacted(t *testing.T, secretValue string) {
	t.Helper()
	assert.NotContains(t, l.GetOutput(), secretValue,
		"Secret value %q should be redacted, but appears in log output", secretValue)
}

// AssertLogCount checks how many lines carry the marker of level
// ("info", "warn", "error" or "debug").
func (l *TestLogger) AssertLogCount(t *testing.T, level string, count int) {
	t.Helper()

	markers := map[string]string{
		"info":  "✓ ",
		"warn":  "⚠ ",
		"error": "✗ ",
		"debug": "[DEBUG] ",
	}
	marker, ok := markers[level]
	if !assert.True(t, ok, "unknown level %q", level) {
		return
	}

	got := 0
	for _, line := range l.Lines() {
		if strings.HasPrefix(line, marker) {
			got++
		}
	}
	assert.Equal(t, count, got, "expected %d %s lines", count, level)
}
