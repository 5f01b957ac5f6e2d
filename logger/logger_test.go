package logger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/forklift-rental/logger"
)

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := logger.New(&logger.Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	log.Debug("reconcile finished", zap.Int("created", 2))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "reconcile finished", line["msg"])
	assert.Equal(t, float64(2), line["created"])
	assert.Contains(t, line, "caller")
}

func TestNew_Levels(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for level, want := range tests {
		log, err := logger.New(&logger.Config{Level: level, Format: "console", Output: "stderr"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(want), level)
		assert.False(t, log.Core().Enabled(want-1), level)
	}
}

func TestNew_BadOutput(t *testing.T) {
	_, err := logger.New(&logger.Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, logger.FromContext(context.Background()), "falls back to a no-op logger")

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))
	logger.FromContext(ctx).Info("hello")
	assert.Equal(t, 1, logs.Len())
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, logger.GetRequestID(context.Background()))

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "chi-id")
	assert.Equal(t, "chi-id", logger.GetRequestID(ctx))

	ctx = logger.WithRequestID(ctx, "own-id")
	assert.Equal(t, "own-id", logger.GetRequestID(ctx))
}

func TestMiddleware(t *testing.T) {
	// GIVEN: A handler behind RequestID and the logging middleware
	core, logs := observer.New(zapcore.DebugLevel)
	var seenID string
	var seenLogger *zap.Logger
	handler := middleware.RequestID(logger.Middleware(zap.New(core))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenID = logger.GetRequestID(r.Context())
			seenLogger = logger.FromContext(r.Context())
			http.NotFound(w, r)
		}),
	))

	// WHEN: Serving a request with a caller-supplied id
	req := httptest.NewRequest(http.MethodGet, "/api/forklifts/missing?x=1", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// THEN: The id reaches the handler and the request is logged at warn
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-123", seenID)
	require.NotNil(t, seenLogger)

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "/api/forklifts/missing", fields["path"])
	assert.Equal(t, int64(404), fields["status"])
	assert.Equal(t, "x=1", fields["query"])
}
