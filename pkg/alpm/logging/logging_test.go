package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx := context.Background()

	l.Debug(ctx, "d")
	l.Info(ctx, "i")
	l.Warn(ctx, "w")
	l.Error(ctx, "e", Native())

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG msg=d")
	assert.Contains(t, out, "level=INFO msg=i")
	assert.Contains(t, out, "level=WARN msg=w")
	assert.Contains(t, out, "level=ERROR msg=e source=libalpm")
}

func TestWithKeepsAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewTextHandler(&buf, nil))).With("db", "core")
	l.Info(context.Background(), "registered")
	require.Contains(t, buf.String(), "db=core")
}

func TestNilUsesDefault(t *testing.T) {
	require.NotNil(t, New(nil))
	Discard().Error(context.Background(), "dropped")
}
