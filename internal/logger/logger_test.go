package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("DEBUG")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, ok = ParseLevel("loud")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", "json")
	l.Debug("hidden")
	l.Info("entry appended", "entry_id", "je_ord_1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "entry appended", rec["msg"])
	assert.Equal(t, "je_ord_1", rec["entry_id"])
	assert.NotEmpty(t, rec["time"])
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", "text")
	ctx := ToContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.Same(t, L, FromContext(context.Background()))
}
