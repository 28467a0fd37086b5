package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

const infoLevel int8 = 0

func TestGetReturnsSameInstance(t *testing.T) {
	first := Get(infoLevel)
	second := Get(-1)
	require.NotNil(t, first)
	assert.Same(t, first, second)
}

func TestGetFallsBackToNoopWhenUnset(t *testing.T) {
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	assert.Same(t, &defaultNoopLogger, GetGlobalLogger())
	assert.Same(t, &defaultNoopLogger, FromContext(context.Background()))
}

func TestWithLoggerAndFromContext(t *testing.T) {
	lgr := Get(infoLevel)
	ctx := WithLogger(context.Background(), lgr)
	assert.Same(t, lgr, FromContext(ctx))

	// Same logger keeps the same context.
	assert.Equal(t, ctx, WithLogger(ctx, lgr))

	other := logr.Discard()
	replaced := WithLogger(ctx, &other)
	assert.Same(t, &other, FromContext(replaced))
}

func TestFromContextUsesGlobalLogger(t *testing.T) {
	global := Get(infoLevel)
	assert.Same(t, global, FromContext(context.Background()))
}

func TestWithValuesReturnsNewLogger(t *testing.T) {
	base := Get(infoLevel)
	derived := WithValues(base, QueryKey, "$.a")
	require.NotNil(t, derived)
	assert.NotSame(t, base, derived)
}

func TestNewZapLoggerWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	zl := newZapLogger(zapcore.InfoLevel, zapcore.AddSync(&buf))
	lgr := zapr.NewLogger(zl)

	lgr.Info("query executed", QueryKey, "$.brand", DurationKey, 1.5)
	require.NoError(t, zl.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "query executed", entry[MessageKey])
	assert.Equal(t, "$.brand", entry[QueryKey])
	assert.Contains(t, entry, TimeStampKey)
	assert.Contains(t, entry, VersionKey)
}

func TestNewZapLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	lgr := zapr.NewLogger(newZapLogger(zapcore.InfoLevel, zapcore.AddSync(&buf)))

	lgr.V(1).Info("debug detail")
	assert.Empty(t, buf.String())
}

func TestSyncWithoutLogger(t *testing.T) {
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()

	assert.NotPanics(t, Sync)
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(syscall.ENOTTY))
	assert.True(t, isIgnorableSyncError(&os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}))
	assert.True(t, isIgnorableSyncError(errors.New("sync: The handle is invalid.")))
	assert.False(t, isIgnorableSyncError(errors.New("disk full")))
}
