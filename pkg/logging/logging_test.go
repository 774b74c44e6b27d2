package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(Options{Level: slog.LevelWarn, JSON: true, Output: &buf}))

	logger.Info("dropped")
	logger.Warn("Account created", "account_id", "acc-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Account created", entry["msg"])
	assert.Equal(t, "acc-1", entry["account_id"])
}

func TestNewHandler_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(Options{Level: slog.LevelInfo, Output: &buf}))

	logger.Info("Storage initialized", "driver", "sqlite")
	assert.Contains(t, buf.String(), "Storage initialized")
	assert.Contains(t, buf.String(), "sqlite")
}
