package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
)

func newJSON(t *testing.T, buf *bytes.Buffer, level logger.Level) logger.Logger {
	t.Helper()

	cfg := logger.DefaultConfig()
	cfg.Output = buf
	cfg.EnableJSON = true
	cfg.Level = level

	log, err := NewAdapter(cfg)
	require.NoError(t, err)

	return log
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}

	return out
}

func TestNewAdapterRequiresOutput(t *testing.T) {
	_, err := NewAdapter(logger.Config{})
	require.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := newJSON(t, &buf, logger.WarnLevel)
	log.Info("dropped")
	log.Warn("kept")
	log.Errorf("kept %d", 2)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "kept 2", entries[1]["message"])
}

func TestSetLevelAppliesToChildren(t *testing.T) {
	var buf bytes.Buffer

	root := newJSON(t, &buf, logger.ErrorLevel)
	child := root.WithFields(logger.F("screen", "feedback"))

	child.Info("before")
	root.SetLevel(logger.DebugLevel)
	child.Info("after")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "after", entries[0]["message"])
	assert.Equal(t, "feedback", entries[0]["screen"])
	assert.Equal(t, logger.DebugLevel, child.GetLevel())
}

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer

	log := newJSON(t, &buf, logger.InfoLevel)
	ctx := logger.ContextWithRequestID(context.Background(), "req-1")

	log.WithContext(ctx).Info("fetched")
	log.WithContext(context.Background()).Info("plain")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0]["request_id"])
	assert.NotContains(t, entries[1], "request_id")
}

func TestWithErrorAndTypedFields(t *testing.T) {
	var buf bytes.Buffer

	log := newJSON(t, &buf, logger.InfoLevel)
	log.WithError(ewrap.New("boom")).
		WithFields(logger.F("page", 3), logger.F("stale", true)).
		Error("fetch failed")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0]["error"])
	assert.InDelta(t, 3, entries[0]["page"], 0)
	assert.Equal(t, true, entries[0]["stale"])
	assert.Contains(t, entries[0], "time")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer

	cfg := logger.DefaultConfig()
	cfg.Output = &buf
	cfg.DisableTimestamp = true

	log, err := NewAdapter(cfg)
	require.NoError(t, err)

	log.Info("hello console")
	assert.Contains(t, buf.String(), "hello console")
}
