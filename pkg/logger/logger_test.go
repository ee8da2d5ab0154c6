package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { global.Store(zap.NewNop()) })
}

func TestInitHonoursLevel(t *testing.T) {
	resetGlobal(t)

	require.NoError(t, Init("debug"))
	require.True(t, Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("warn"))
	require.False(t, Logger().Core().Enabled(zap.InfoLevel))
	require.True(t, Logger().Core().Enabled(zap.WarnLevel))
}

func TestInitFallsBackToInfoOnGarbage(t *testing.T) {
	resetGlobal(t)

	require.NoError(t, Init("shouting"))
	require.False(t, Logger().Core().Enabled(zap.DebugLevel))
	require.True(t, Logger().Core().Enabled(zap.InfoLevel))
}

func TestWithModuleTagsEntries(t *testing.T) {
	resetGlobal(t)

	core, recorded := observer.New(zap.InfoLevel)
	global.Store(zap.New(core))

	WithModule("dispatch").Info("fan-out complete")

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "fan-out complete", entries[0].Message)
	require.Equal(t, "dispatch", entries[0].ContextMap()["module"])
}
