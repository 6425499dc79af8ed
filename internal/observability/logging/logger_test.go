package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		expected slog.Level
	}{
		{
			name:     "default log level (info)",
			logLevel: "",
			expected: slog.LevelInfo,
		},
		{
			name:     "debug log level",
			logLevel: "debug",
			expected: slog.LevelDebug,
		},
		{
			name:     "warn log level",
			logLevel: "warn",
			expected: slog.LevelWarn,
		},
		{
			name:     "error log level uppercase",
			logLevel: "ERROR",
			expected: slog.LevelError,
		},
		{
			name:     "invalid log level defaults to info",
			logLevel: "invalid",
			expected: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.logLevel != "" {
				t.Setenv("LOG_LEVEL", tt.logLevel)
			}

			assert.Equal(t, tt.expected, LevelFromEnv())
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	assert.NotNil(t, NewLogger(), "logger should not be nil")
	assert.NotNil(t, NewTextLogger(), "text logger should not be nil")
}

// TestLogger_LogLevels tests logging at different levels
func TestLogger_LogLevels(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(*slog.Logger, string)
		message string
		level   string
	}{
		{
			name:    "info level logging",
			logFunc: func(l *slog.Logger, m string) { l.Info(m) },
			message: "test info message",
			level:   "INFO",
		},
		{
			name:    "debug level logging when enabled",
			logFunc: func(l *slog.Logger, m string) { l.Debug(m) },
			message: "test debug message",
			level:   "DEBUG",
		},
		{
			name:    "warn level logging",
			logFunc: func(l *slog.Logger, m string) { l.Warn(m) },
			message: "test warn message",
			level:   "WARN",
		},
		{
			name:    "error level logging",
			logFunc: func(l *slog.Logger, m string) { l.Error(m) },
			message: "test error message",
			level:   "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})
			logger := slog.New(handler)

			tt.logFunc(logger, tt.message)

			var logEntry map[string]interface{}
			err := json.Unmarshal(buf.Bytes(), &logEntry)
			require.NoError(t, err, "output should be valid JSON")
			assert.Equal(t, tt.message, logEntry["msg"], "JSON should contain correct message")
			assert.Equal(t, tt.level, logEntry["level"], "JSON should contain correct level")
			assert.NotEmpty(t, logEntry["time"], "JSON should contain timestamp")
		})
	}
}

// TestLogger_DebugLevelFiltering tests that debug messages are filtered when not enabled
func TestLogger_DebugLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	logger.Debug("this should not appear")
	logger.Info("this should appear")

	output := buf.String()
	assert.NotContains(t, output, "this should not appear", "debug message should be filtered")
	assert.Contains(t, output, "this should appear", "info message should be logged")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	baseLogger := slog.New(handler)

	logger := WithComponent(baseLogger, "recovery")
	logger.Info("retry scheduled")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err, "output should be valid JSON")
	assert.Equal(t, "recovery", logEntry["component"], "component should be tagged")
}

func TestWithComponent_Empty(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	baseLogger := slog.New(handler)

	logger := WithComponent(baseLogger, "")
	logger.Info("test message")

	output := buf.String()
	assert.Contains(t, output, "test message", "message should be logged")
	assert.NotContains(t, output, "component", "should not contain component field")
}

// TestWithFields tests adding structured fields to logger
func TestWithFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{
			name: "single string field",
			fields: map[string]interface{}{
				"session_id": "session-123",
			},
		},
		{
			name: "multiple mixed fields",
			fields: map[string]interface{}{
				"provider": "anthropic",
				"attempts": 3,
				"success":  true,
			},
		},
		{
			name: "numeric fields",
			fields: map[string]interface{}{
				"count":    42,
				"duration": 123.45,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})
			baseLogger := slog.New(handler)

			logger := WithFields(baseLogger, tt.fields)
			logger.Info("test message")

			var logEntry map[string]interface{}
			err := json.Unmarshal(buf.Bytes(), &logEntry)
			require.NoError(t, err, "output should be valid JSON")

			for key, expectedValue := range tt.fields {
				assert.Contains(t, logEntry, key, "output should contain field: %s", key)
				switch v := expectedValue.(type) {
				case int:
					assert.Equal(t, float64(v), logEntry[key], "field %s should match", key)
				default:
					assert.Equal(t, v, logEntry[key], "field %s should match", key)
				}
			}
		})
	}
}

// TestFromContext tests retrieving logger from context
func TestFromContext(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		check    func(*testing.T, *slog.Logger)
	}{
		{
			name: "with logger in context",
			setupCtx: func() context.Context {
				var buf bytes.Buffer
				handler := slog.NewJSONHandler(&buf, nil)
				logger := slog.New(handler)
				return WithLogger(context.Background(), logger)
			},
			check: func(t *testing.T, logger *slog.Logger) {
				assert.NotNil(t, logger, "should return logger from context")
			},
		},
		{
			name: "without logger in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
			check: func(t *testing.T, logger *slog.Logger) {
				assert.Equal(t, slog.Default(), logger, "should be default logger")
			},
		},
		{
			name: "with invalid value in context",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), loggerContextKey, "not a logger")
			},
			check: func(t *testing.T, logger *slog.Logger) {
				assert.Equal(t, slog.Default(), logger, "should be default logger")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.setupCtx()

			logger := FromContext(ctx)

			tt.check(t, logger)
		})
	}
}

// TestWithLogger tests adding logger to context
func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(handler)

	newCtx := WithLogger(context.Background(), logger)

	retrievedLogger := FromContext(newCtx)
	require.NotNil(t, retrievedLogger, "retrieved logger should not be nil")

	retrievedLogger.Info("test message")
	assert.Contains(t, buf.String(), "test message", "should use the same logger")
}

// TestLogger_MultipleLogEntries tests logging multiple entries
func TestLogger_MultipleLogEntries(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	logger.Info("first message")
	logger.Warn("second message")
	logger.Error("third message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 3, len(lines), "should have 3 log entries")

	for i, line := range lines {
		var logEntry map[string]interface{}
		err := json.Unmarshal([]byte(line), &logEntry)
		require.NoError(t, err, "line %d should be valid JSON", i+1)
		assert.NotEmpty(t, logEntry["msg"], "line %d should have message", i+1)
		assert.NotEmpty(t, logEntry["level"], "line %d should have level", i+1)
	}
}
