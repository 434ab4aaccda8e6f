package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(LogConfig{Level: LevelDebug, Format: format, OutputPaths: []string{"stdout"}})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_EmptyOutputPathsRejected(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestNewLogger_NilOutputPathsDefaultsToStdout(t *testing.T) {
	l, err := NewLogger(LogConfig{Service: "medremind-test"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestConvenienceConstructors_NotNil(t *testing.T) {
	assert.NotNil(t, NewDefaultLogger())
	assert.NotNil(t, NewDevelopmentLogger())
	assert.NotNil(t, NewNopLogger())
}

func TestNopLogger_ReturnsSelf(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.WithContext(context.Background()))
	assert.Equal(t, l, l.WithError(errors.New("boom")))
	assert.Equal(t, l, l.Named("x"))
	assert.NoError(t, l.Sync())
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	l, buf := newTestLogger(t)

	l.Debug("parsing text", Int("length", 42))
	l.Info("schedule created", String("prescription_id", "rx-1"), Strings("times", []string{"08:00", "20:00"}))
	l.Warn("validation indeterminate", Duration("elapsed", 3*time.Second))
	l.Error("scan failed", Err(errors.New("db down")))

	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"length":42`)
	assert.Contains(t, out, `"prescription_id":"rx-1"`)
	assert.Contains(t, out, `"times":["08:00","20:00"]`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"error":"db down"`)
}

func TestZapLogger_WithContext(t *testing.T) {
	l, buf := newTestLogger(t)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithUserID(ctx, "user-9")
	l.WithContext(ctx).Info("handled")

	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"user_id":"user-9"`)
}

func TestZapLogger_WithContext_EmptyReturnsSame(t *testing.T) {
	l, _ := newTestLogger(t)
	assert.Same(t, l, l.WithContext(context.Background()))
}

func TestZapLogger_Named(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Named("scanner").Info("tick")
	assert.Contains(t, buf.String(), `"logger":"scanner"`)
}

func TestErr_Nil(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
}

func TestContextHelpers_NilSafe(t *testing.T) {
	//nolint:staticcheck
	assert.Empty(t, RequestIDFromContext(nil))
	//nolint:staticcheck
	assert.Empty(t, UserIDFromContext(nil))
}

func TestDefault_SetAndGet(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newTestLogger(t)
	SetDefault(l)
	assert.Same(t, l, Default())

	SetDefault(nil)
	assert.Same(t, l, Default())
}

//Personal.AI order the ending
