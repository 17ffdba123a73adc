package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Output: &buf}).WithComponent(ComponentRates)
	l.Info("fetched", FieldCount, 3)
	assert.Contains(t, buf.String(), "component=rates")
	assert.Contains(t, buf.String(), "count=3")
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf})
	l.LogError(context.Background(), "persist failed", errors.New("disk full"), OpPersist, nil)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), `error="disk full"`)
	assert.Contains(t, buf.String(), "operation=persist")
}

func TestLogHTTPEndLevel(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{503, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		l := New(Config{Output: &buf})
		r := httptest.NewRequest(http.MethodGet, "/transactions?page=2", nil)
		l.LogHTTPEnd(context.Background(), r, tt.status, 5, "127.0.0.1")
		assert.Contains(t, buf.String(), tt.level)
		assert.Contains(t, buf.String(), "path=/transactions")
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf})

	ctx := NewContext(context.Background(), l.With(FieldRequestID, "req-1"))
	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}
