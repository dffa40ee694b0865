package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pooled-savings-ledger/internal/config"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name              string
		logLevel          string
		expectedSlogLevel slog.Level
	}{
		{"DebugLevel", "debug", slog.LevelDebug},
		{"InfoLevel", "info", slog.LevelInfo},
		{"WarnLevel", "WARN", slog.LevelWarn},
		{"ErrorLevel", "error", slog.LevelError},
		{"DefaultToInfo", "unknown", slog.LevelInfo},
		{"EmptyToInfo", "", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{Logging: config.LoggingConfig{Level: tc.logLevel}}

			logger := NewLogger(cfg)
			require.NotNil(t, logger)

			assert.True(t, logger.Enabled(context.Background(), tc.expectedSlogLevel))
			assert.False(t, logger.Enabled(context.Background(), tc.expectedSlogLevel-1))
		})
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info")

	t.Run("WithCorrelationID", func(t *testing.T) {
		buf.Reset()
		ctx := ContextWithCorrelationID(context.Background(), "corr-123")
		FromContext(ctx, base).Info("posted")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "corr-123", line["correlation_id"])
		assert.Equal(t, "posted", line["msg"])
	})

	t.Run("WithoutCorrelationID", func(t *testing.T) {
		buf.Reset()
		ctx := ContextWithCorrelationID(context.Background(), "")
		assert.Equal(t, "", CorrelationID(ctx))
		FromContext(ctx, base).Info("posted")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		_, present := line["correlation_id"]
		assert.False(t, present)
	})
}
