//go:build go1.21

package slog

import (
	"bytes"
	"encoding/json"
	"errors"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/dictcache"
)

func TestSlogLoggerGroupsFields(t *testing.T) {
	var buf bytes.Buffer
	base := stdslog.New(stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug}))
	l := New(base)

	l.Warn("cache unavailable, querying source directly", dictcache.Fields{
		"key": "fx_rate#currency#EUR",
		"op":  "range",
		"err": errors.New("connection reset by peer"),
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "cache unavailable, querying source directly", line["msg"])

	group, ok := line["dictcache"].(map[string]any)
	require.True(t, ok, "fields grouped under dictcache: %v", line)
	assert.Equal(t, "fx_rate#currency#EUR", group["key"])
	assert.Equal(t, "range", group["op"])
	assert.Equal(t, "connection reset by peer", group["err"])
}

func TestSlogLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	base := stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo}))
	l := New(base)

	l.Debug("hidden", dictcache.Fields{"key": "k"})
	l.Info("shown", nil)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 1, strings.Count(out, "msg=shown"))
}
