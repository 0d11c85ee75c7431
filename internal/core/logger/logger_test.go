package logger

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tour-booking-api/internal/core/config"
)

func TestToWriterTrimsNewline(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := ToWriter(zap.New(core), zapcore.WarnLevel)

	_, err := fmt.Fprintln(w, "gin debug line")
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "gin debug line", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestToWriterRespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	w := ToWriter(zap.New(core), zapcore.DebugLevel)
	_, _ = w.Write([]byte("dropped\n"))
	assert.Zero(t, logs.Len())
}

func TestFromConfigWithFile(t *testing.T) {
	l, closer := FromConfig(config.Log{
		Level:     "debug",
		JSON:      true,
		File:      filepath.Join(t.TempDir(), "app.log"),
		MaxSizeMB: 1,
	}, "test")
	defer closer()
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestToWriterSplitsLines(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := ToWriter(zap.New(core), zapcore.InfoLevel)
	_, _ = w.Write([]byte("first\r\n\nsecond\n"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "first", logs.All()[0].Message)
	assert.Equal(t, "second", logs.All()[1].Message)
}

func TestFromConfigBadLevelFallsBackToInfo(t *testing.T) {
	l, closer := FromConfig(config.Log{Level: "loud"}, "test")
	defer closer()
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}
