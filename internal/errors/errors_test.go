package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewValidationError(ErrCodeInvalidRequest, "resume text is required", nil),
			expected: "INVALID_REQUEST: resume text is required",
		},
		{
			name:     "with cause",
			err:      NewProviderError(ErrCodeProviderFailed, "remote scorer failed", fmt.Errorf("status 503")),
			expected: "PROVIDER_FAILED: remote scorer failed (caused by: status 503)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	base := NewConfigError(ErrCodeInvalidConfig, "bad port", nil).WithContext("port", "abc")
	wrapped := fmt.Errorf("loading: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeConfig, appErr.Type)
	assert.Equal(t, "abc", appErr.Context["port"])

	_, ok = AsAppError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestLoggerLogErrorIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	err := NewIOError(ErrCodeFileNotFound, "missing resume", nil).WithContext("file", "cv.txt")
	logger.LogError(err, "scoring failed", "request_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scoring failed", entry["msg"])
	assert.Equal(t, "FILE_NOT_FOUND", entry["error_code"])
	assert.Equal(t, "cv.txt", entry["file"])
	assert.Equal(t, "abc", entry["request_id"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := New("verbose")
	assert.EqualError(t, err, "invalid log level: verbose")
}
