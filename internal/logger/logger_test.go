package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"api_key", "sk-123", "page", 3, "Authorization", "Bearer x"})
	assert.Equal(t, []interface{}{"api_key", "[REDACTED]", "page", 3, "Authorization", "[REDACTED]"}, out)
}

func TestSanitizeKVs_OddTrailingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"page", 1, "dangling"})
	assert.Equal(t, []interface{}{"page", 1, "dangling"}, out)
}

func TestLogger_WritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("run_id", "r1").Warn("page failed", "page", 2, "token", "abc")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "page failed", entries[0].Message)
		assert.Equal(t, "r1", ctx["run_id"])
		assert.Equal(t, int64(2), ctx["page"])
		assert.Equal(t, "[REDACTED]", ctx["token"])
	}
}

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		assert.NoError(t, err)
		assert.NotNil(t, l)
	}
}
