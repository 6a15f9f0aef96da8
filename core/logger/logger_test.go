package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawahiro39/online-status-trygreen/core/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("production writes json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithProduction("svc"), logger.WithOutput(&buf))
		log.Info("hello", logger.Component("test"))
		log.Debug("hidden")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "hello", rec["msg"])
		assert.Equal(t, "svc", rec["service"])
		assert.Equal(t, "production", rec["env"])
		assert.Equal(t, "test", rec["component"])
	})

	t.Run("development logs debug as text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithDevelopment("svc"), logger.WithOutput(&buf))
		log.Debug("visible")

		assert.Contains(t, buf.String(), "msg=visible")
		assert.Contains(t, buf.String(), "service=svc")
	})

	t.Run("later level wins", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithDevelopment("svc"), logger.WithLevel(slog.LevelWarn), logger.WithOutput(&buf))
		log.Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("context extractors", func(t *testing.T) {
		t.Parallel()

		type key struct{}
		var buf bytes.Buffer
		log := logger.New(
			logger.WithJSONFormatter(),
			logger.WithOutput(&buf),
			logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
				id, ok := ctx.Value(key{}).(string)
				return logger.RequestID(id), ok
			}),
		).With("static", 1)

		ctx := context.WithValue(context.Background(), key{}, "req-1")
		log.InfoContext(ctx, "hello")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "req-1", rec["request_id"])
		assert.EqualValues(t, 1, rec["static"])
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	} {
		assert.Equal(t, want, logger.ParseLevel(in), "input %q", in)
	}
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	attr := logger.Error(err)
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	for _, empty := range []slog.Attr{
		logger.Error(nil),
		logger.RequestID(""),
		logger.ClientID(""),
		logger.UserID(""),
		logger.ClientIP(""),
		logger.Key("k", nil),
	} {
		assert.True(t, empty.Equal(slog.Attr{}))
	}

	assert.Equal(t, "client_id", logger.ClientID("c-1").Key)
	assert.Equal(t, "uid", logger.UserID("u-1").Key)
	assert.Equal(t, 3*time.Second, logger.Latency(3*time.Second).Value.Duration())

	g := logger.Group("req", logger.Method("GET"), logger.StatusCode(200))
	require.Equal(t, slog.KindGroup, g.Value.Kind())
	assert.Len(t, g.Value.Group(), 2)
}
