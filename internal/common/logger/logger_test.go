package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMapToZapFields_SortedAndTyped(t *testing.T) {
	fields := mapToZapFields(map[string]interface{}{
		"taskType": "score-comparables",
		"error":    errors.New("boom"),
		"count":    3,
	})

	require.Len(t, fields, 3)
	assert.Equal(t, "count", fields[0].Key)
	assert.Equal(t, "error", fields[1].Key)
	assert.Equal(t, zapcore.ErrorType, fields[1].Type)
	assert.Equal(t, "taskType", fields[2].Key)
}

func TestZapWrapper_WithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "calculate-market-value"})

	log.Info("market value calculated", map[string]interface{}{"finalMarketValue": 20074.0})
	log.WithError(errors.New("redis down")).Warn("cache miss", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "calculate-market-value", entries[0].ContextMap()["taskType"])
	assert.Equal(t, 20074.0, entries[0].ContextMap()["finalMarketValue"])
	assert.Equal(t, "redis down", entries[1].ContextMap()["error"])
}

func TestNew_FallsBackToInfo(t *testing.T) {
	l := New("chatty", "json")

	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}
