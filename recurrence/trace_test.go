package recurrence

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	engine := newTestEngine(func(c *EngineConfig) { c.Trace = SlogTrace(logger) })
	_, err := engine.Expand(at(2024, 3, 29, 12, 0), fifthFriday(), 2)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="recurrence missing_week_skipped"`)
	assert.Contains(t, out, "rule=monthly")
	assert.Contains(t, out, "no matching week in month")
	assert.NotContains(t, out, "recurrence emit", "debug events must be filtered by the handler level")
	assert.Equal(t, 1, strings.Count(out, "missing_week_skipped"))
}

func TestSlogTrace_NilLogger(t *testing.T) {
	assert.Nil(t, SlogTrace(nil))
}

func TestChain(t *testing.T) {
	var a, b []TraceEvent
	assert.Nil(t, chain(nil, nil))

	fn := chain(nil, collectTrace(&a), collectTrace(&b))
	fn(TraceEvent{Kind: TraceEmit})
	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
}
