package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in).Level(), in)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")
	logger.Info("hello", "component", "test")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"component":"test"`)
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "text")
	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
