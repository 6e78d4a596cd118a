package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
			assert.Equal(t, tt.expected, Secret(tt.input).String())
			assert.Equal(t, tt.expected, Secret(tt.input).GoString())
		})
	}
}

func TestSecretRedactionInOutput(t *testing.T) {
	secretValue := "super-secret-password-12345"

	for _, json := range []bool{false, true} {
		t.Run(fmt.Sprintf("json=%v", json), func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithOptions(Options{Debug: true, NoColor: true, JSON: json, Output: &buf})

			logger.Info("Retrieved secret: %s", Secret(secretValue))
			logger.Debug("Debug secret: %v", Secret(secretValue))
			logger.Warn("Struct secret: %#v", Secret(secretValue))

			output := buf.String()
			assert.Contains(t, output, "[REDACTED]")
			assert.NotContains(t, output, secretValue)
			assert.Contains(t, output, "Retrieved secret")
		})
	}
}

func TestLoggerDebugMode(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{NoColor: true, Output: &buf})
	logger.Debug("hidden %d", 1)
	assert.False(t, logger.IsDebug())
	assert.Empty(t, buf.String())

	buf.Reset()
	debugLogger := NewWithOptions(Options{Debug: true, NoColor: true, Output: &buf})
	debugLogger.Debug("shown %d", 2)
	assert.True(t, debugLogger.IsDebug())
	assert.Contains(t, buf.String(), "[DEBUG]")
	assert.Contains(t, buf.String(), "shown 2")
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Debug: true, NoColor: true, Output: &buf})

	logger.Info("formatted %s message", "info")
	logger.Warn("formatted %s message", "warn")
	logger.Error("formatted %s message", "error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "✓"))
	assert.True(t, strings.HasPrefix(lines[1], "⚠"))
	assert.True(t, strings.HasPrefix(lines[2], "✗"))
	assert.Contains(t, lines[1], "formatted warn message")
}

func TestLoggerColor(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Output: &buf})
	logger.Warn("careful")
	assert.Contains(t, buf.String(), "\033[33m⚠\033[0m")
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{JSON: true, Output: &buf})
	logger.Info("set %d secret env vars", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "set 3 secret env vars", entry["msg"])
	assert.Contains(t, entry, "timestamp")
}

func TestNopLogger(t *testing.T) {
	logger := Nop()
	assert.NotPanics(t, func() {
		logger.Info("nothing")
		logger.Error("nothing")
	})
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
			assert.Equal(t, tt.expected, Redact(tt.input, tt.secrets))
		})
	}
}
