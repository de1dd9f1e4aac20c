package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretRedaction(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "secret is redacted",
			input:    "my-secret-password",
			expected: "[REDACTED]",
		},
		{
			name:     "empty secret is still redacted",
			input:    "",
			expected: "[REDACTED]",
		},
		{
			name:     "complex secret is redacted",
			input:    "password123!@#",
			expected: "[REDACTED]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Secret(tt.input).String()
			if result != tt.expected {
				t.Errorf("Secret(%q).String() = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSecretGoString(t *testing.T) {
	assert.Equal(t, "[REDACTED]", Secret("super-secret-password").GoString())
}

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Info("pushed %s", "db-pass")
	logger.Warn("careful")
	logger.Error("failed %d", 2)
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "✓ pushed db-pass\n")
	assert.Contains(t, out, "⚠ careful\n")
	assert.Contains(t, out, "✗ failed 2\n")
	assert.NotContains(t, out, "hidden")
	assert.False(t, logger.DebugEnabled())
}

func TestLoggerDebugMode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true, true)
	logger.Debug("listing %s", "kv-test")

	assert.Equal(t, "[DEBUG] listing kv-test\n", buf.String())
	assert.True(t, logger.DebugEnabled())
}

func TestLoggerColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, false, false).Error("boom")

	assert.Equal(t, "\033[31m✗\033[0m boom\n", buf.String())
}

func TestLoggerSecretArgument(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true, true)

	secretValue := "super-secret-password-12345"
	logger.Info("Retrieved secret: %s", Secret(secretValue))
	logger.Debug("value=%v", Secret(secretValue))

	assert.Contains(t, buf.String(), "[REDACTED]")
	assert.NotContains(t, buf.String(), secretValue)
}

func TestLoggerDetail(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Detail("ERROR: line one\nline two\n")
	logger.Detail("")

	assert.Equal(t, "  ERROR: line one\n  line two\n", buf.String())
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := Discard()
	logger.Info("nothing")
	logger.Detail("nothing")
}

// TestRedactFunction tests the Redact utility function
func TestRedactFunction(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		secrets  []string
		expected string
	}{
		{
			name:     "single secret redacted",
			input:    "The password is secret123",
			secrets:  []string{"secret123"},
			expected: "The password is [REDACTED]",
		},
		{
			name:     "multiple secrets redacted",
			input:    "User admin with password secret123 and API key abc123",
			secrets:  []string{"admin", "secret123", "abc123"},
			expected: "User [REDACTED] with password [REDACTED] and API key [REDACTED]",
		},
		{
			name:     "empty secret ignored",
			input:    "This has no secrets",
			secrets:  []string{""},
			expected: "This has no secrets",
		},
		{
			name:     "short secret ignored",
			input:    "Short secret: ab",
			secrets:  []string{"ab"},
			expected: "Short secret: ab", // Too short to redact
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Redact(tt.input, tt.secrets)
			if result != tt.expected {
				t.Errorf("Redact() = %q, want %q", result, tt.expected)
			}
		})
	}
}
