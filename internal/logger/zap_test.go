package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{Level: "debug", Format: "json", Output: path}, SentryConfig{})
	require.NoError(t, err)

	log.Info("analysis completed", zap.String("channel_id", "UC123"), zap.Int("videos", 42))
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"analysis completed"`)
	assert.Contains(t, string(data), `"channel_id":"UC123"`)
	assert.Contains(t, string(data), `"videos":42`)
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "loud", Output: "stderr"}, SentryConfig{})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestFieldsToMap(t *testing.T) {
	m := fieldsToMap([]zapcore.Field{
		zap.String("channel_id", "UC1"),
		zap.Int("count", 3),
		zap.Float64("score", 87.5),
		zap.Bool("cached", true),
		zap.Duration("took", 1500*time.Millisecond),
		zap.Error(errors.New("boom")),
	})

	assert.Equal(t, "UC1", m["channel_id"])
	assert.EqualValues(t, 3, m["count"])
	assert.Equal(t, 87.5, m["score"])
	assert.Equal(t, true, m["cached"])
	assert.Equal(t, 1500*time.Millisecond, m["took"])
	assert.Equal(t, "boom", m["error"])
}

func TestSentryCore_Check(t *testing.T) {
	core := newSentryCore(zapcore.ErrorLevel)

	warn := core.Check(zapcore.Entry{Level: zapcore.WarnLevel}, nil)
	assert.Nil(t, warn)

	errEntry := core.Check(zapcore.Entry{Level: zapcore.ErrorLevel}, nil)
	assert.NotNil(t, errEntry)

	child := core.With([]zapcore.Field{zap.String("k", "v")}).(*sentryCore)
	assert.Len(t, child.fields, 1)
	assert.Empty(t, core.fields)
}

func TestZapLevelToSentry(t *testing.T) {
	assert.Equal(t, sentry.LevelWarning, zapLevelToSentry(zapcore.WarnLevel))
	assert.Equal(t, sentry.LevelError, zapLevelToSentry(zapcore.ErrorLevel))
	assert.Equal(t, sentry.LevelFatal, zapLevelToSentry(zapcore.FatalLevel))
}
